// Package app is the demo application: a start task that spawns four
// workers and deletes itself, two LED blinkers, a tick reporter and a key
// task that deletes the blinkers on demand.
package app

import (
	"dualtick/core"
	"dualtick/protocol"
)

// Static task memory. Nothing here is allocated after boot.
var (
	startStack [StartTaskStackSize]core.StackWord
	startTCB   core.ControlBlock
	task1Stack [TaskStackSize]core.StackWord
	task1TCB   core.ControlBlock
	task2Stack [TaskStackSize]core.StackWord
	task2TCB   core.ControlBlock
	task3Stack [TaskStackSize]core.StackWord
	task3TCB   core.ControlBlock
	task4Stack [TaskStackSize]core.StackWord
	task4TCB   core.ControlBlock
)

var (
	startTask = core.TaskDescriptor{Name: "Start_Task", Priority: StartTaskPriority, Stack: startStack[:], Control: &startTCB}
	task1     = core.TaskDescriptor{Name: "vTask1", Priority: Task1Priority, Stack: task1Stack[:], Control: &task1TCB}
	task2     = core.TaskDescriptor{Name: "vTask2", Priority: Task2Priority, Stack: task2Stack[:], Control: &task2TCB}
	task3     = core.TaskDescriptor{Name: "vTask3", Priority: Task3Priority, Stack: task3Stack[:], Control: &task3TCB}
	task4     = core.TaskDescriptor{Name: "vTask4", Priority: Task4Priority, Stack: task4Stack[:], Control: &task4TCB}
)

// App wires the demo tasks to the time base, the lifecycle manager and the
// board peripherals
type App struct {
	lm      *core.Lifecycle
	tb      *core.TimeBase
	sched   core.Scheduler
	board   Board
	display StatusDisplay

	// Commands receives console input; frames "key1" and "key2" act like
	// the keys. Nil disables console commands.
	Commands *protocol.LineReceiver

	led1, led2 core.LED
	keys       *core.KeyScanner
}

// New creates the application. A nil display is replaced by NopDisplay.
func New(lm *core.Lifecycle, tb *core.TimeBase, sched core.Scheduler, board Board, display StatusDisplay) *App {
	if display == nil {
		display = NopDisplay{}
	}
	return &App{
		lm:      lm,
		tb:      tb,
		sched:   sched,
		board:   board,
		display: display,
		led1:    core.LED{Pin: board.LED1, ActiveLow: board.LEDActiveLow},
		led2:    core.LED{Pin: board.LED2, ActiveLow: board.LEDActiveLow},
		keys:    core.NewKeyScanner(board.Key1, board.Key2),
	}
}

// Init configures the keys and LEDs
func (a *App) Init() error {
	if err := a.keys.Init(); err != nil {
		return err
	}
	if err := a.led1.Init(); err != nil {
		return err
	}
	return a.led2.Init()
}

// Launch creates the start task. The caller starts the scheduler next.
func (a *App) Launch() core.Handle {
	h := a.lm.Spawn(&startTask, a.startTask)
	core.Println("Before scheduler start")
	return h
}

// startTask creates the workers and deletes itself, all inside one
// critical section so no worker runs before the set is complete
func (a *App) startTask() {
	cs := core.EnterCritical()
	defer cs.Exit()

	a.lm.SpawnAll(
		[]*core.TaskDescriptor{&task1, &task2, &task3, &task4},
		[]core.TaskFunc{a.task1, a.task2, a.task3, a.task4},
	)
	a.lm.DeleteOther(&startTask.Handle)
}

func (a *App) task1() {
	a.blink("Task1", &a.led1)
}

func (a *App) task2() {
	a.blink("Task2", &a.led2)
}

func (a *App) blink(name string, led *core.LED) {
	for {
		core.Println(name + " is running  RTOS tick: " + core.Utoa(a.sched.TickCount()) + "  ")
		led.Toggle()
		a.tb.DelayMS(BlinkPeriodMS)
	}
}

// task3 reports both time bases so drift between them can be watched
func (a *App) task3() {
	for {
		core.Println("Task3 is running  RTOS tick: " + core.Utoa(a.sched.TickCount()) +
			"  HAL tick: " + core.Utoa(a.tb.Millis()))
		a.tb.DelayMS(BlinkPeriodMS)
	}
}

func (a *App) task4() {
	for {
		core.Println("Task4 is running  RTOS tick: " + core.Utoa(a.sched.TickCount()) + "  ")

		code := a.keys.Scan()
		if code == 0 {
			code = a.pollCommand()
		}
		switch code {
		case 1:
			a.keyPressed(code, &task1)
		case 2:
			a.keyPressed(code, &task2)
		}

		a.tb.DelayMS(KeyPollMS)
	}
}

// keyPressed deletes the blinker bound to a key, once
func (a *App) keyPressed(code uint8, target *core.TaskDescriptor) {
	n := core.Utoa(uint32(code))
	a.display.ShowString(2, 1, "KEY"+n+" Pressed!")
	core.Println("KEY" + n + " Pressed!")

	if target.Handle != core.NilHandle {
		a.lm.DeleteOther(&target.Handle)
		a.display.ShowString(1, 1, "Task"+n+" Deleted")
		core.Println("Task" + n + " Deleted")
		a.tb.DelayMS(StatusHoldMS)
		a.display.ShowString(1, 1, blankLine)
	}

	a.tb.DelayMS(StatusHoldMS)
	a.display.ShowString(2, 1, blankLine)
}

// pollCommand handles one console frame and returns the key code it
// stands for
func (a *App) pollCommand() uint8 {
	if a.Commands == nil {
		return 0
	}
	frame, ok := a.Commands.Frame()
	if !ok {
		return 0
	}
	defer a.Commands.Release()

	switch string(frame) {
	case "key1":
		return 1
	case "key2":
		return 2
	case "uptime":
		core.Println("Uptime: " + core.Utoa(uint32(a.tb.Uptime64()/1000)) + "s")
	case "events":
		core.DumpEventRing()
	default:
		core.Println("Unknown command: " + string(frame))
	}
	return 0
}
