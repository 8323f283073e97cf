package response

import (
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/GregMSThompson/swift-sage/internal/dto"
	"github.com/GregMSThompson/swift-sage/pkg/logger"
)

const (
	HeaderTranscript      = "X-Transcript"
	HeaderResponse        = "X-Response"
	HeaderTTSProvider     = "X-TTS-Provider"
	HeaderAudioEncoding   = "X-Audio-Encoding"
	HeaderAudioSampleRate = "X-Audio-Sample-Rate"

	streamChunkSize = 32 * 1024
)

// WriteVoice sends the reply either as plain text for client-side speech or
// as the provider's audio stream, copied through as it arrives.
func (h *responseHandler) WriteVoice(w http.ResponseWriter, r *http.Request, result dto.VoiceResult) {
	log := logger.FromContext(r.Context())
	setMetadata(w, result)

	speech := result.Speech
	if speech == nil || speech.Audio == nil {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if _, err := io.WriteString(w, result.Reply); err != nil {
			log.Warn("failed to write reply", "error", err)
		}
		return
	}
	defer speech.Audio.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set(HeaderAudioEncoding, speech.Format.Encoding)
	w.Header().Set(HeaderAudioSampleRate, strconv.Itoa(speech.Format.SampleRate))
	w.WriteHeader(http.StatusOK)

	n, err := streamCopy(w, speech.Audio)
	if err != nil {
		// Headers are gone; all we can do is stop and log.
		log.Warn("audio stream interrupted", "bytes", n, "tts_provider", speech.Provider, "error", err)
		return
	}
	log.Info("audio streamed", "bytes", n, "tts_provider", speech.Provider)
}

// HandleVoiceError reports a failed voice command, keeping whatever
// transcript and reply were produced in the metadata headers.
func (h *responseHandler) HandleVoiceError(w http.ResponseWriter, r *http.Request, result dto.VoiceResult, err error) {
	setMetadata(w, result)
	h.HandleError(w, r, err)
}

func setMetadata(w http.ResponseWriter, result dto.VoiceResult) {
	hdr := w.Header()
	hdr.Set(HeaderTranscript, EncodeHeaderValue(result.Transcript))
	hdr.Set(HeaderResponse, EncodeHeaderValue(result.Reply))
	provider := result.Providers.TTS
	if result.Speech != nil {
		provider = result.Speech.Provider
	}
	if provider != "" {
		hdr.Set(HeaderTTSProvider, string(provider))
	}
}

// EncodeHeaderValue percent-encodes s so that a browser's decodeURIComponent
// restores it exactly.
func EncodeHeaderValue(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func streamCopy(w http.ResponseWriter, src io.Reader) (int64, error) {
	flusher, _ := w.(http.Flusher)
	buf := make([]byte, streamChunkSize)

	var total int64
	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			written, err := w.Write(buf[:n])
			total += int64(written)
			if err != nil {
				return total, err
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
		if readErr == io.EOF {
			return total, nil
		}
		if readErr != nil {
			return total, readErr
		}
	}
}
