package app

// StatusDisplay is a small character display. Rows and columns count from 1.
type StatusDisplay interface {
	ShowString(row, col uint8, s string)
}

// blankLine clears a status message
const blankLine = "             "

// NopDisplay discards everything, for boards without a display
type NopDisplay struct{}

func (NopDisplay) ShowString(row, col uint8, s string) {}
