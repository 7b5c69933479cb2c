package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/lancast/lancast/secret"
	"github.com/lancast/lancast/utils"
)

func main() {
	m := flag.Int("m", 0,
		`working mode:
1: Generate a sealed secret
2: Generate a plain secret
3: Generate a plain secret from a sealed one
4: Generate a sealed secret from a plain one
all require output path, 3,4 require source input path`)

	s := flag.String("s", "", "source input path")
	o := flag.String("o", "", "output path")
	flag.Parse()

	if *m <= 0 || *m > 4 {
		fmt.Printf("Invalid mode:%d\n", *m)
		os.Exit(1)
	}

	if len(*o) == 0 {
		fmt.Printf("output path should not be empty\n")
		os.Exit(1)
	}

	if err := utils.AccessCheck(*o); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	if *m == 3 || *m == 4 {
		if len(*s) == 0 {
			fmt.Printf("source input path should not be empty\n")
			os.Exit(1)
		}

		if err := utils.AccessCheck(*s); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	}

	var err error
	switch *m {
	case 1:
		_, err = secret.NewSealed(*o)
	case 2:
		_, err = secret.NewPlain(*o)
	case 3:
		err = secret.OpenSealed(*s, *o)
	case 4:
		err = secret.SealPlain(*s, *o)
	}
	if err != nil {
		fmt.Printf("error happen: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Finish, checkout .*Secret file in the %s\n", *o)
}
