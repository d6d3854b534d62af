package domain

// PCMFormatS16LE is the only raw sample format accepted from devices.
const PCMFormatS16LE = "pcm_s16le"

type AudioFormat string

const (
	AudioFormatMP3 AudioFormat = "mp3"
	AudioFormatWAV AudioFormat = "wav"
)

func (f AudioFormat) Valid() bool {
	return f == AudioFormatMP3 || f == AudioFormatWAV
}

func (f AudioFormat) ContentType() string {
	if f == AudioFormatWAV {
		return "audio/wav"
	}
	return "audio/mpeg"
}

// PCMRequest is the JSON payload embedded clients send with raw microphone
// samples. It is also what the tts_raw endpoint answers with.
type PCMRequest struct {
	PCMBase64   string `json:"pcm_b64"`
	SampleRate  int    `json:"sample_rate"`
	Channels    int    `json:"channels"`
	SampleWidth int    `json:"sample_width"`
	Format      string `json:"format"`
	LangHint    string `json:"lang_hint,omitempty"`
}
