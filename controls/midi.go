package controls

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/veandco/go-sdl2/sdl"
)

// MidiKnobValues is the number of positions of a MIDI knob.
const MidiKnobValues = 128

var digitKeys = [8]sdl.Keycode{
	sdl.K_0, sdl.K_1, sdl.K_2, sdl.K_3,
	sdl.K_4, sdl.K_5, sdl.K_6, sdl.K_7,
}

// WriteMidiPreset writes a Bome MIDI Translator preset that turns every
// position of knob 1 into key strokes: the digit keys 0 to 7 spell the
// position in binary and are held while "m" is tapped.
func WriteMidiPreset(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprint(bw, "[Project]\nVersion=1\n\n[Preset.0]\nName=Jarmungular Preset\nActive=1\n")

	for i := 0; i < MidiKnobValues; i++ {
		var pressed, released strings.Builder
		commands := 2
		for n := 0; n < len(digitKeys); n++ {
			if i>>n&1 != 0 {
				fmt.Fprintf(&pressed, "03%d", n)
				fmt.Fprintf(&released, "23%d", n)
				commands += 2
			}
		}

		fmt.Fprintf(bw, "Name%d=Knob 1\n", i)
		fmt.Fprintf(bw, "Incoming%d=MID1B015%02x \n", i, i)
		fmt.Fprintf(bw, "Outgoing%d=KAM10100KSQ100%02x%s04D24D%s\n", i, commands, pressed.String(), released.String())
		fmt.Fprintf(bw, "Options%d=Actv01Stop00OutO00\n", i)
	}
	fmt.Fprintln(bw)

	return errors.Wrap(bw.Flush(), "write MIDI preset")
}

// MidiValue decodes the held digit keys 0 to 7 as the bits of a byte.
func (q *Queues) MidiValue() uint8 {
	var v uint8
	for n, key := range digitKeys {
		if q.held[key] {
			v |= 1 << n
		}
	}
	return v
}
