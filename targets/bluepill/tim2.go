//go:build stm32f103

package main

import (
	"device/stm32"
	"errors"
	"machine"
	"runtime/interrupt"
)

// tim2Timer drives the library millisecond tick from TIM2, leaving SysTick
// to the scheduler
type tim2Timer struct {
	handler func()
}

var libraryTimer = &tim2Timer{}

var errBadPeriod = errors.New("tim2: period out of range")

// Start runs TIM2 at 1MHz and interrupts every periodUS microseconds
func (t *tim2Timer) Start(periodUS uint32, handler func()) error {
	if periodUS == 0 || periodUS > 0x10000 {
		return errBadPeriod
	}
	t.handler = handler

	stm32.RCC.APB1ENR.SetBits(stm32.RCC_APB1ENR_TIM2EN)

	// APB1 timers run at the core clock with the x2 multiplier
	stm32.TIM2.PSC.Set(machine.CPUFrequency()/1000000 - 1)
	stm32.TIM2.ARR.Set(periodUS - 1)
	stm32.TIM2.EGR.SetBits(stm32.TIM_EGR_UG)
	stm32.TIM2.SR.ClearBits(stm32.TIM_SR_UIF)
	stm32.TIM2.DIER.SetBits(stm32.TIM_DIER_UIE)

	// Lowest priority, below the scheduler tick
	intr := interrupt.New(stm32.IRQ_TIM2, handleTIM2)
	intr.SetPriority(0xF0)
	intr.Enable()

	stm32.TIM2.CR1.SetBits(stm32.TIM_CR1_CEN)
	return nil
}

func handleTIM2(interrupt.Interrupt) {
	if !stm32.TIM2.SR.HasBits(stm32.TIM_SR_UIF) {
		return
	}
	stm32.TIM2.SR.ClearBits(stm32.TIM_SR_UIF)
	if libraryTimer.handler != nil {
		libraryTimer.handler()
	}
}
