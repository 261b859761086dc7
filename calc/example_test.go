package calc_test

import (
	"fmt"
	"log"

	"github.com/kolvan/matrixctl/calc"
)

// Example enters a matrix over the serial link and reads it back from a
// state snapshot.
func Example() {
	app, err := calc.New(calc.Options{})
	if err != nil {
		log.Fatal(err)
	}

	// Two rows, two columns, then the four elements as digits.
	app.HostWrite([]byte("2 2 1234"))
	app.Select(calc.ModeInput)
	app.Confirm()
	if err := app.RunUntilIdle(10000); err != nil {
		log.Fatal(err)
	}

	m := app.Snapshot().Matrices[0]
	fmt.Println(m.Rows, m.Cols, m.Elements)

	// Output:
	// 2 2 [1 2 3 4]
}

// Example_display shows the transcript format: a table marker, rows
// separated by CRLF, a blank line, and the done marker.
func Example_display() {
	app, err := calc.New(calc.Options{})
	if err != nil {
		log.Fatal(err)
	}

	app.HostWrite([]byte("2 2 1234"))
	app.Select(calc.ModeInput)
	app.Confirm()
	if err := app.RunUntilIdle(10000); err != nil {
		log.Fatal(err)
	}
	app.HostRead() // drain the input session's own transcript

	app.HostWrite([]byte("0 ")) // display slot 0
	app.Select(calc.ModeDisplay)
	app.Confirm()
	if err := app.RunUntilIdle(10000); err != nil {
		log.Fatal(err)
	}

	fmt.Printf("%q\n", app.HostRead())

	// Output:
	// "T1 2\r\n3 4\r\n\nD"
}
