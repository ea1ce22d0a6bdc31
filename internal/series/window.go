package series

import (
	"fmt"
	"strconv"
	"strings"
)

// Window is a chart period in days
type Window int

const (
	Window30  Window = 30
	Window90  Window = 90
	Window365 Window = 365

	DefaultWindow = Window30
)

// Windows lists the selectable chart periods
var Windows = []Window{Window30, Window90, Window365}

// Days returns the window length
func (w Window) Days() int {
	return int(w)
}

func (w Window) String() string {
	return strconv.Itoa(int(w)) + "d"
}

// ParseWindow accepts "30", "90", "365" with an optional "d" suffix. An
// empty string selects DefaultWindow.
func ParseWindow(s string) (Window, error) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "d")
	if s == "" {
		return DefaultWindow, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid chart period %q: %w", s, err)
	}
	for _, w := range Windows {
		if int(w) == n {
			return w, nil
		}
	}
	return 0, fmt.Errorf("unsupported chart period %d", n)
}
