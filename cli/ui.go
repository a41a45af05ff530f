package main

import (
	"fmt"
	"io"
	"os"

	"github.com/cheggaaa/pb"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

var (
	infoColor = color.New(color.FgCyan)
	okColor   = color.New(color.FgGreen)
	failColor = color.New(color.FgRed)
	fileColor = color.New(color.FgYellow)
)

// console prints the [.]/[+]/[!] status lines.
type console struct {
	w io.Writer
}

func (c console) info(format string, args ...interface{}) {
	infoColor.Fprint(c.w, "[.] ")
	fmt.Fprintf(c.w, format+"\n", args...)
}

func (c console) ok(format string, args ...interface{}) {
	okColor.Fprint(c.w, "[+] ")
	fmt.Fprintf(c.w, format+"\n", args...)
}

func (c console) fail(format string, args ...interface{}) {
	failColor.Fprint(c.w, "[!] ")
	fmt.Fprintf(c.w, format+"\n", args...)
}

func (c console) saved(format string, args ...interface{}) {
	fileColor.Fprint(c.w, "[=] ")
	fmt.Fprintf(c.w, format+"\n", args...)
}

func (c console) line(format string, args ...interface{}) {
	fmt.Fprintf(c.w, format+"\n", args...)
}

func stderrIsTerminal() bool {
	fd := os.Stderr.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// passProgress shows one progress bar per scan pass on stderr.
type passProgress struct {
	pass string
	bar  *pb.ProgressBar
}

func (p *passProgress) update(pass string, done, total int) {
	if p.bar == nil || p.pass != pass {
		p.finish()
		p.pass = pass
		p.bar = pb.New(total)
		p.bar.Output = os.Stderr
		p.bar.ShowSpeed = false
		p.bar.Prefix(pass + " ")
		p.bar.Start()
	}
	p.bar.Set(done)
	if done >= total {
		p.finish()
	}
}

func (p *passProgress) finish() {
	if p.bar != nil {
		p.bar.Finish()
		p.bar = nil
	}
}
