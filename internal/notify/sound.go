package notify

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/generators"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"

	"github.com/ayoisaiah/notch/internal/apperr"
)

const (
	chimeSampleRate = beep.SampleRate(44100)
	chimeNoteLength = 180 * time.Millisecond
)

// chimeNotes are the frequencies of the built-in completion chime.
var chimeNotes = []float64{880, 1174.66, 1318.51}

var errInvalidSoundFormat = &apperr.Error{
	Kind:    apperr.KindValidation,
	Message: "sound file %s must be in mp3, ogg, flac, or wav format",
}

// ValidSoundFile reports whether path has a supported audio extension.
func ValidSoundFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3", ".ogg", ".flac", ".wav":
		return true
	default:
		return false
	}
}

// playSound plays sound on the default audio device and waits for it to
// finish.
func playSound(sound string) error {
	var (
		stream beep.Streamer
		format beep.Format
		err    error
	)

	if sound == SoundChime {
		stream, format, err = chime()
	} else {
		var s beep.StreamSeekCloser

		s, format, err = decodeFile(sound)
		if err == nil {
			defer s.Close()

			stream = s
		}
	}

	if err != nil {
		return err
	}

	bufferSize := 10

	err = speaker.Init(
		format.SampleRate,
		format.SampleRate.N(time.Duration(int(time.Second)/bufferSize)),
	)
	if err != nil {
		return err
	}

	defer speaker.Close()

	done := make(chan struct{})

	speaker.Play(beep.Seq(stream, beep.Callback(func() {
		close(done)
	})))

	<-done

	speaker.Clear()

	return nil
}

// decodeFile opens an audio file and decodes it according to its extension.
func decodeFile(path string) (beep.StreamSeekCloser, beep.Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, beep.Format{}, err
	}

	var (
		stream beep.StreamSeekCloser
		format beep.Format
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".ogg":
		stream, format, err = vorbis.Decode(f)
	case ".mp3":
		stream, format, err = mp3.Decode(f)
	case ".flac":
		stream, format, err = flac.Decode(f)
	case ".wav":
		stream, format, err = wav.Decode(f)
	default:
		_ = f.Close()
		return nil, beep.Format{}, errInvalidSoundFormat.Fmt(path)
	}

	if err != nil {
		_ = f.Close()
		return nil, beep.Format{}, err
	}

	return stream, format, nil
}

// chime synthesizes a short rising three-note tone.
func chime() (beep.Streamer, beep.Format, error) {
	format := beep.Format{
		SampleRate:  chimeSampleRate,
		NumChannels: 2,
		Precision:   2,
	}

	notes := make([]beep.Streamer, 0, len(chimeNotes))

	for _, freq := range chimeNotes {
		tone, err := generators.SineTone(chimeSampleRate, freq)
		if err != nil {
			return nil, format, err
		}

		notes = append(notes, &effects.Volume{
			Streamer: beep.Take(chimeSampleRate.N(chimeNoteLength), tone),
			Base:     2,
			Volume:   -2,
		})
	}

	return beep.Seq(notes...), format, nil
}
