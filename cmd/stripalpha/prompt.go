package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/setanarut/stripalpha"
	"github.com/setanarut/stripalpha/utils"
)

// prompter asks for the folder and color on the terminal when the tool is
// started without arguments. An empty answer or EOF cancels.
type prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: bufio.NewScanner(in), out: out}
}

func (p *prompter) ask(question string) (string, error) {
	fmt.Fprint(p.out, question)
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return "", err
		}
		return "", stripalpha.ErrCancelled
	}
	answer := strings.TrimSpace(p.in.Text())
	if answer == "" {
		return "", stripalpha.ErrCancelled
	}
	return answer, nil
}

func (p *prompter) folder() (string, error) {
	for {
		dir, err := p.ask("Select folder: ")
		if err != nil {
			return "", fmt.Errorf("no folder selected: %w", err)
		}
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir, nil
		}
		fmt.Fprintf(p.out, "%s is not a folder\n", dir)
	}
}

func (p *prompter) color() (utils.Background, error) {
	for {
		s, err := p.ask("Choose replacement color (#RRGGBB or R, G, B): ")
		if err != nil {
			return utils.Background{}, fmt.Errorf("no color selected: %w", err)
		}
		bg, err := utils.ParseBackground(s)
		if err == nil {
			return bg, nil
		}
		fmt.Fprintln(p.out, err)
	}
}

func (p *prompter) selection() (string, utils.Background, error) {
	dir, err := p.folder()
	if err != nil {
		return "", utils.Background{}, err
	}
	bg, err := p.color()
	if err != nil {
		return "", utils.Background{}, err
	}
	return dir, bg, nil
}
