package interaction

import (
	"os"
	"sync"
	"unicode/utf8"

	"golang.org/x/sys/unix"
)

// KeyType classifies a key press.
type KeyType int

const (
	KeyChar KeyType = iota
	KeyEscape
	KeyEnter
	KeyTab
	KeyBackTab
	KeyBackspace
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyPageUp
	KeyPageDown
	KeyHome
	KeyEnd
	KeyCtrl
)

// KeyEvent is one key press. For KeyChar Key is the typed rune; for
// KeyCtrl it is the lower-case letter held with Ctrl.
type KeyEvent struct {
	Key  rune
	Type KeyType
}

// KeyboardReader reads key presses from a terminal in raw mode.
type KeyboardReader struct {
	in       *os.File
	oldState *unix.Termios
	input    chan KeyEvent
	stop     chan struct{}
	once     sync.Once
}

// NewKeyboardReader puts in into raw mode and starts reading from it.
func NewKeyboardReader(in *os.File) (*KeyboardReader, error) {
	kr := &KeyboardReader{
		in:    in,
		input: make(chan KeyEvent, 32),
		stop:  make(chan struct{}),
	}
	if err := kr.enableRawMode(); err != nil {
		return nil, err
	}
	go kr.readInput()
	return kr, nil
}

func (kr *KeyboardReader) readInput() {
	buf := make([]byte, 64)
	for {
		n, err := kr.in.Read(buf)
		if err != nil {
			return
		}
		for _, ev := range parseInput(buf[:n]) {
			select {
			case kr.input <- ev:
			case <-kr.stop:
				return
			}
		}
	}
}

var csiKeys = map[string]KeyType{
	"A":  KeyUp,
	"B":  KeyDown,
	"C":  KeyRight,
	"D":  KeyLeft,
	"H":  KeyHome,
	"F":  KeyEnd,
	"Z":  KeyBackTab,
	"1~": KeyHome,
	"4~": KeyEnd,
	"5~": KeyPageUp,
	"6~": KeyPageDown,
}

// parseInput splits one read into key events. A read may hold several keys
// when input is pasted.
func parseInput(buf []byte) []KeyEvent {
	var events []KeyEvent
	for len(buf) > 0 {
		b := buf[0]
		switch {
		case b == 27:
			if len(buf) >= 3 && (buf[1] == '[' || buf[1] == 'O') {
				if ev, n, ok := parseCSI(buf[2:]); ok {
					if ev != nil {
						events = append(events, *ev)
					}
					buf = buf[2+n:]
					continue
				}
			}
			events = append(events, KeyEvent{Key: 27, Type: KeyEscape})
			buf = buf[1:]
		case b == '\r' || b == '\n':
			events = append(events, KeyEvent{Key: '\r', Type: KeyEnter})
			buf = buf[1:]
		case b == '\t':
			events = append(events, KeyEvent{Key: '\t', Type: KeyTab})
			buf = buf[1:]
		case b == 127 || b == 8:
			events = append(events, KeyEvent{Key: rune(b), Type: KeyBackspace})
			buf = buf[1:]
		case b >= 1 && b <= 26:
			events = append(events, KeyEvent{Key: rune('a' + b - 1), Type: KeyCtrl})
			buf = buf[1:]
		case b < 32:
			buf = buf[1:]
		default:
			r, size := utf8.DecodeRune(buf)
			events = append(events, KeyEvent{Key: r, Type: KeyChar})
			buf = buf[size:]
		}
	}
	return events
}

// parseCSI reads the final part of an escape sequence. Unknown complete
// sequences are consumed and yield no event.
func parseCSI(buf []byte) (*KeyEvent, int, bool) {
	for i, c := range buf {
		if c >= 0x40 && c <= 0x7e {
			if kt, ok := csiKeys[string(buf[:i+1])]; ok {
				return &KeyEvent{Type: kt}, i + 1, true
			}
			return nil, i + 1, true
		}
	}
	return nil, 0, false
}

// Events returns the key event channel.
func (kr *KeyboardReader) Events() <-chan KeyEvent {
	return kr.input
}

// Close stops delivering events and restores the terminal.
func (kr *KeyboardReader) Close() error {
	kr.once.Do(func() { close(kr.stop) })
	return kr.disableRawMode()
}

func (kr *KeyboardReader) enableRawMode() error {
	fd := int(kr.in.Fd())
	oldState, err := unix.IoctlGetTermios(fd, ioctlGetTermios)
	if err != nil {
		return err
	}
	kr.oldState = oldState

	newState := *oldState
	newState.Lflag &^= unix.ECHO | unix.ICANON | unix.IEXTEN
	// ISIG stays on so Ctrl+C still interrupts.
	newState.Iflag &^= unix.BRKINT | unix.ICRNL | unix.INPCK | unix.ISTRIP | unix.IXON
	newState.Cflag |= unix.CS8
	newState.Cc[unix.VMIN] = 1
	newState.Cc[unix.VTIME] = 0
	return unix.IoctlSetTermios(fd, ioctlSetTermios, &newState)
}

func (kr *KeyboardReader) disableRawMode() error {
	if kr.oldState == nil {
		return nil
	}
	return unix.IoctlSetTermios(int(kr.in.Fd()), ioctlSetTermios, kr.oldState)
}
