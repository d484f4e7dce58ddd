package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// Форматы WAV, которые умеет читать декодер
const (
	formatPCM       = 1 // 16-битный целочисленный PCM
	formatIEEEFloat = 3 // 32-битный float PCM
)

// EncodeWAV кодирует моно float32 PCM сэмплы в WAV (IEEE float, little-endian)
func EncodeWAV(samples []float32, sampleRate int) ([]byte, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("некорректная частота дискретизации: %d", sampleRate)
	}

	dataSize := len(samples) * 4
	buf := bytes.NewBuffer(make([]byte, 0, 44+dataSize))

	// RIFF заголовок
	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(36+dataSize))
	buf.WriteString("WAVE")

	// fmt чанк: моно, float32
	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))
	binary.Write(buf, binary.LittleEndian, uint16(formatIEEEFloat))
	binary.Write(buf, binary.LittleEndian, uint16(1)) // каналы
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate*4)) // байт в секунду
	binary.Write(buf, binary.LittleEndian, uint16(4))            // выравнивание блока
	binary.Write(buf, binary.LittleEndian, uint16(32))           // бит на сэмпл

	// data чанк
	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, uint32(dataSize))
	for _, s := range samples {
		binary.Write(buf, binary.LittleEndian, math.Float32bits(s))
	}

	return buf.Bytes(), nil
}

// DecodeWAV разбирает WAV и возвращает моно float32 сэмплы и частоту.
// Поддерживаются float32 и 16-битный PCM: TTS-провайдеры возвращают
// и тот, и другой формат. Многоканальное аудио сводится к моно усреднением.
func DecodeWAV(data []byte) ([]float32, int, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, 0, fmt.Errorf("не WAV данные")
	}

	var (
		audioFormat uint16
		channels    uint16
		sampleRate  uint32
		bitsPerSamp uint16
		raw         []byte
		haveFmt     bool
	)

	// Обход чанков: интересуют только fmt и data
	pos := 12
	for pos+8 <= len(data) {
		chunkID := string(data[pos : pos+4])
		chunkSize := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8
		if body+chunkSize > len(data) {
			chunkSize = len(data) - body
		}

		switch chunkID {
		case "fmt ":
			if chunkSize < 16 {
				return nil, 0, fmt.Errorf("усеченный fmt чанк: %d байт", chunkSize)
			}
			audioFormat = binary.LittleEndian.Uint16(data[body : body+2])
			channels = binary.LittleEndian.Uint16(data[body+2 : body+4])
			sampleRate = binary.LittleEndian.Uint32(data[body+4 : body+8])
			bitsPerSamp = binary.LittleEndian.Uint16(data[body+14 : body+16])
			haveFmt = true
		case "data":
			raw = data[body : body+chunkSize]
		}

		// Чанки выравниваются по четной границе
		pos = body + chunkSize
		if chunkSize%2 == 1 {
			pos++
		}
	}

	if !haveFmt {
		return nil, 0, fmt.Errorf("нет fmt чанка")
	}
	if raw == nil {
		return nil, 0, fmt.Errorf("нет data чанка")
	}
	if channels == 0 {
		return nil, 0, fmt.Errorf("некорректное число каналов: 0")
	}

	var samples []float32
	switch {
	case audioFormat == formatIEEEFloat && bitsPerSamp == 32:
		count := len(raw) / 4
		samples = make([]float32, 0, count)
		for i := 0; i+4 <= len(raw); i += 4 {
			samples = append(samples, math.Float32frombits(binary.LittleEndian.Uint32(raw[i:i+4])))
		}
	case audioFormat == formatPCM && bitsPerSamp == 16:
		count := len(raw) / 2
		samples = make([]float32, 0, count)
		for i := 0; i+2 <= len(raw); i += 2 {
			v := int16(binary.LittleEndian.Uint16(raw[i : i+2]))
			samples = append(samples, float32(v)/32768.0)
		}
	default:
		return nil, 0, fmt.Errorf("неподдерживаемый формат WAV: format=%d bits=%d", audioFormat, bitsPerSamp)
	}

	// Сведение многоканального аудио к моно
	if channels > 1 {
		mono := make([]float32, 0, len(samples)/int(channels))
		for i := 0; i+int(channels) <= len(samples); i += int(channels) {
			var sum float32
			for c := 0; c < int(channels); c++ {
				sum += samples[i+c]
			}
			mono = append(mono, sum/float32(channels))
		}
		samples = mono
	}

	return samples, int(sampleRate), nil
}

// Resample приводит сэмплы к другой частоте линейной интерполяцией
func Resample(samples []float32, srcRate, dstRate int) ([]float32, error) {
	if srcRate <= 0 || dstRate <= 0 {
		return nil, fmt.Errorf("некорректные частоты: %d -> %d", srcRate, dstRate)
	}
	if srcRate == dstRate || len(samples) == 0 {
		out := make([]float32, len(samples))
		copy(out, samples)
		return out, nil
	}

	outLen := int(int64(len(samples)) * int64(dstRate) / int64(srcRate))
	if outLen == 0 {
		return []float32{}, nil
	}

	out := make([]float32, outLen)
	ratio := float64(srcRate) / float64(dstRate)
	for i := range out {
		pos := float64(i) * ratio
		idx := int(pos)
		if idx >= len(samples)-1 {
			out[i] = samples[len(samples)-1]
			continue
		}
		frac := float32(pos - float64(idx))
		out[i] = samples[idx]*(1-frac) + samples[idx+1]*frac
	}
	return out, nil
}

// Silence возвращает буфер тишины заданной длительности
func Silence(durationSec float64, sampleRate int) []float32 {
	if durationSec <= 0 || sampleRate <= 0 {
		return nil
	}
	return make([]float32, int(durationSec*float64(sampleRate)))
}

// FallbackDurationSec оценивает длительность заглушки тишины по длине
// текста: ~14 символов в секунду, от 1 до 6 секунд
func FallbackDurationSec(textLen int) float64 {
	d := float64(textLen) / 14.0
	if d < 1.0 {
		d = 1.0
	}
	if d > 6.0 {
		d = 6.0
	}
	return d
}
