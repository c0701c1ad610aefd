package main

import (
	"fmt"
	"strconv"
	"strings"
)

// stringList collects a repeatable, comma-separated string flag.
type stringList []string

func (l *stringList) String() string { return strings.Join(*l, ",") }

func (l *stringList) Set(v string) error {
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			*l = append(*l, s)
		}
	}
	return nil
}

// intList collects a repeatable, comma-separated integer flag.
type intList []int

func (l *intList) String() string {
	parts := make([]string, len(*l))
	for i, n := range *l {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}

func (l *intList) Set(v string) error {
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s == "" {
			continue
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("%q is not an integer", s)
		}
		*l = append(*l, n)
	}
	return nil
}

// expandLists rewrites "--name a b c" into "--name=a --name=b --name=c"
// for every list flag, so lists may be given space-separated. Integer
// lists consume following tokens while they parse as integers, which
// keeps "-1" usable as a value.
func expandLists(args []string, strs, ints map[string]bool) []string {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		name := strings.TrimLeft(arg, "-")
		if !strings.HasPrefix(arg, "-") || strings.Contains(name, "=") || !(strs[name] || ints[name]) {
			out = append(out, arg)
			continue
		}
		n := 0
		for i+1 < len(args) {
			next := args[i+1]
			if ints[name] {
				if _, err := strconv.Atoi(strings.Split(next, ",")[0]); err != nil {
					break
				}
			} else if strings.HasPrefix(next, "-") {
				break
			}
			out = append(out, "--"+name+"="+next)
			n++
			i++
		}
		if n == 0 {
			out = append(out, arg)
		}
	}
	return out
}
