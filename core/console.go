package core

import "io"

// console is the character sink for application diagnostics, normally the
// board's UART
var console io.Writer

// SetConsole registers the character sink used by Println
func SetConsole(w io.Writer) {
	console = w
}

// Println writes s followed by CRLF to the console. Output is dropped when
// no console is registered.
func Println(s string) {
	if console == nil {
		return
	}
	console.Write([]byte(s + "\r\n"))
}
