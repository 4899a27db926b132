package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"dualtick/host/monitor"
	"dualtick/host/serial"
)

var (
	device  = flag.String("device", "/dev/ttyUSB0", "Serial device path")
	baud    = flag.Int("baud", serial.DefaultBaud, "Console baud rate")
	verbose = flag.Bool("verbose", false, "Echo every console line")
	stall   = flag.Uint("stall", 1500, "Ticks without a report before a task counts as stalled")
)

func main() {
	flag.Parse()

	fmt.Println("tickmon - firmware console monitor")
	fmt.Println("==================================")
	fmt.Println()

	fmt.Printf("Connecting to %s at %d baud...\n", *device, *baud)
	mon, err := monitor.Connect(*device, *baud)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer mon.Close()

	go func() {
		if err := mon.Run(printRecord); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}()

	fmt.Println("Enter commands (type 'help' for available commands, 'quit' to exit):")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch cmd := strings.Fields(line)[0]; cmd {
		case "quit", "exit", "q":
			fmt.Println("Goodbye!")
			return

		case "help", "?":
			printHelp()

		case "stats":
			s := mon.Stats()
			s.Print(os.Stdout)
			if stalled := s.Stalled(uint32(*stall)); len(stalled) > 0 {
				fmt.Printf("Stalled tasks: %v\n", stalled)
			}

		case "key1", "key2", "uptime", "events":
			if err := mon.Send(cmd); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}

		default:
			fmt.Printf("Unknown command: %s (type 'help' for available commands)\n", cmd)
		}
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
		os.Exit(1)
	}
}

func printRecord(r monitor.Record) {
	switch r.Kind {
	case monitor.KindBanner:
		fmt.Println("\n[firmware restarted]")
	case monitor.KindTaskDeleted:
		fmt.Printf("\n[Task%d deleted]\n", r.Task)
	case monitor.KindKeyPressed:
		fmt.Printf("\n[KEY%d pressed]\n", r.Key)
	case monitor.KindFatal:
		fmt.Fprintf(os.Stderr, "\n%s\n", r.Text)
	default:
		if *verbose {
			fmt.Printf("  %s\n", r.Text)
		}
	}
}

func printHelp() {
	fmt.Println("\nAvailable commands:")
	fmt.Println("  help           - Show this help message")
	fmt.Println("  stats          - Print console statistics and time-base drift")
	fmt.Println("  key1, key2     - Press a key remotely")
	fmt.Println("  uptime         - Ask the firmware for its uptime")
	fmt.Println("  events         - Dump the firmware event ring")
	fmt.Println("  quit/exit/q    - Exit the program")
	fmt.Println()
}
