package mailing

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/alexKleider/Club-Utilities-sub000/internal/member"
)

// ReadPayments parses "First Last: amount" lines as used by the thank
// mailing. Blank lines and '#' comments are skipped. A repeated name
// accumulates.
func ReadPayments(r io.Reader) (map[member.Key]int, error) {
	out := make(map[member.Key]int)
	err := eachLine(r, func(n int, line string) error {
		i := strings.LastIndex(line, ":")
		if i < 0 {
			return fmt.Errorf("line %d: %q lacks ':'", n, line)
		}
		key, err := member.KeyFromName(line[:i])
		if err != nil {
			return fmt.Errorf("line %d: %w", n, err)
		}
		amount, err := strconv.Atoi(strings.TrimSpace(line[i+1:]))
		if err != nil {
			return fmt.Errorf("line %d: amount %q is not an integer", n, strings.TrimSpace(line[i+1:]))
		}
		out[key] += amount
		return nil
	})
	return out, err
}

// ReadReturned parses one "First Last" name per line, naming members whose
// postal mail came back.
func ReadReturned(r io.Reader) (map[member.Key]bool, error) {
	out := make(map[member.Key]bool)
	err := eachLine(r, func(n int, line string) error {
		key, err := member.KeyFromName(line)
		if err != nil {
			return fmt.Errorf("line %d: %w", n, err)
		}
		out[key] = true
		return nil
	})
	return out, err
}

// LoadPayments reads a payments file.
func LoadPayments(path string) (map[member.Key]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open payments: %w", err)
	}
	defer f.Close()
	p, err := ReadPayments(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// LoadReturned reads a returned-letters file.
func LoadReturned(path string) (map[member.Key]bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open returned letters: %w", err)
	}
	defer f.Close()
	p, err := ReadReturned(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

func eachLine(r io.Reader, fn func(n int, line string) error) error {
	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		n++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := fn(n, line); err != nil {
			return err
		}
	}
	return sc.Err()
}
