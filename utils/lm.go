package utils

import "sync"

// LoopMode manages a fixed number of long-term running goroutines that
// belong to one component. The owner calls StartWorking() at the end of
// its setup and Stop() during cleanup; each goroutine registers with
// Add()/Done() and returns when the D channel fires:
/*
	lm.Add()
	defer lm.Done()
	for {
		select {
		case <-lm.D:
			return
		// case :...other goroutine logic
		}
	}
*/
type LoopMode struct {
	working     bool
	routinesNum int
	waitGroup   sync.WaitGroup
	D           chan bool
}

// NewLoop returns a LoopMode for the given number of goroutines (must be >0).
func NewLoop(routines int) *LoopMode {
	if routines <= 0 {
		return nil
	}
	return &LoopMode{
		routinesNum: routines,
		D:           make(chan bool, routines),
	}
}

func (l *LoopMode) StartWorking() {
	l.working = true
}

// Stop signals every goroutine to quit and waits for them. It returns
// false if the component never started working.
func (l *LoopMode) Stop() bool {
	if !l.working {
		return false
	}

	l.working = false
	for i := 0; i < l.routinesNum; i++ {
		l.D <- true
	}
	l.waitGroup.Wait()
	return true
}

func (l *LoopMode) Add() {
	l.waitGroup.Add(1)
}

func (l *LoopMode) Done() {
	l.waitGroup.Done()
}
