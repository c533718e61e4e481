package gnss

import (
	"bytes"

	"clickcode-go/errcode"
	"clickcode-go/x/conv"
	"clickcode-go/x/strconvx"
)

// Fix quality reported in GGA field 6.
type Quality uint8

const (
	QualityInvalid Quality = iota
	QualityGPS
	QualityDGPS
	QualityPPS
	QualityRTK
	QualityFloatRTK
	QualityEstimated
)

// GGA is a decoded fix data sentence.
type GGA struct {
	// UTC time of day.
	Hour, Minute uint8
	Second       float32
	// Latitude and Longitude in signed decimal degrees (north, east positive).
	Latitude, Longitude float64
	Quality             Quality
	Satellites          uint8
	HDOP                float32
	// Altitude above mean sea level and geoid separation, in metres.
	Altitude, GeoidSeparation float32
}

// Checksum XORs the bytes between '$' and '*' of a sentence.
func Checksum(s []byte) byte {
	if len(s) > 0 && s[0] == '$' {
		s = s[1:]
	}
	if i := bytes.IndexByte(s, '*'); i >= 0 {
		s = s[:i]
	}
	var x byte
	for _, c := range s {
		x ^= c
	}
	return x
}

// VerifyChecksum reports whether s carries a '*HH' suffix matching its body.
// Trailing CR/LF are ignored.
func VerifyChecksum(s []byte) bool {
	s = bytes.TrimRight(s, "\r\n")
	i := bytes.IndexByte(s, '*')
	if i < 0 || len(s) != i+3 {
		return false
	}
	want, ok := conv.ParseHex8(s[i+1], s[i+2])
	return ok && want == Checksum(s)
}

// AppendSentence wraps body as "$body*HH\r\n".
func AppendSentence(dst []byte, body string) []byte {
	dst = append(dst, '$')
	dst = append(dst, body...)
	dst = append(dst, '*')
	dst = conv.AppendHex8(dst, Checksum([]byte(body)))
	return append(dst, '\r', '\n')
}

// Element returns field n of a sentence, where field 0 is the address
// (e.g. "GPGGA"). The checksum is not part of the last field. ok is false
// when the sentence has fewer fields.
func Element(s []byte, n int) (field []byte, ok bool) {
	s = bytes.TrimRight(s, "\r\n")
	if len(s) > 0 && s[0] == '$' {
		s = s[1:]
	}
	if i := bytes.IndexByte(s, '*'); i >= 0 {
		s = s[:i]
	}
	for ; n > 0; n-- {
		i := bytes.IndexByte(s, ',')
		if i < 0 {
			return nil, false
		}
		s = s[i+1:]
	}
	if i := bytes.IndexByte(s, ','); i >= 0 {
		s = s[:i]
	}
	return s, true
}

// IsType reports whether the sentence formatter (the address without the
// two-letter talker ID) equals typ, e.g. "GGA" matches $GPGGA and $GNGGA.
func IsType(s []byte, typ string) bool {
	addr, ok := Element(s, 0)
	return ok && len(addr) == 2+len(typ) && string(addr[2:]) == typ
}

// ParseGGA decodes a GGA sentence. Empty position fields (no fix yet) decode
// as zero with QualityInvalid.
func ParseGGA(s []byte) (GGA, error) {
	var g GGA
	if !IsType(s, "GGA") {
		return g, errcode.New(errcode.InvalidParams, "gnss.parse_gga", "not a GGA sentence")
	}
	if bytes.IndexByte(s, '*') >= 0 && !VerifyChecksum(s) {
		return g, errcode.New(errcode.ChecksumError, "gnss.parse_gga", "checksum mismatch")
	}
	f := func(n int) []byte {
		v, _ := Element(s, n)
		return v
	}
	var err error
	if g.Hour, g.Minute, g.Second, err = parseUTC(f(1)); err != nil {
		return g, err
	}
	if g.Latitude, err = Coordinate(f(2), f(3)); err != nil {
		return g, err
	}
	if g.Longitude, err = Coordinate(f(4), f(5)); err != nil {
		return g, err
	}
	q, err := parseUint(f(6))
	if err != nil {
		return g, err
	}
	g.Quality = Quality(q)
	sats, err := parseUint(f(7))
	if err != nil {
		return g, err
	}
	g.Satellites = uint8(sats)
	if g.HDOP, err = parseFloat32(f(8)); err != nil {
		return g, err
	}
	if g.Altitude, err = parseFloat32(f(9)); err != nil {
		return g, err
	}
	if g.GeoidSeparation, err = parseFloat32(f(11)); err != nil {
		return g, err
	}
	return g, nil
}

// Coordinate converts a (d)ddmm.mmmm value and its hemisphere letter to
// signed decimal degrees.
func Coordinate(v, hemi []byte) (float64, error) {
	if len(v) == 0 {
		return 0, nil
	}
	raw, err := strconvx.ParseFloat(v, 64)
	if err != nil {
		return 0, errcode.Wrap(errcode.InvalidParams, "gnss.coordinate", err)
	}
	deg := float64(int(raw / 100))
	deg += (raw - deg*100) / 60
	if len(hemi) == 1 && (hemi[0] == 'S' || hemi[0] == 'W') {
		deg = -deg
	}
	return deg, nil
}

func parseUTC(v []byte) (h, m uint8, sec float32, err error) {
	if len(v) == 0 {
		return 0, 0, 0, nil
	}
	if len(v) < 6 {
		return 0, 0, 0, errcode.New(errcode.InvalidParams, "gnss.parse_utc", "short time field")
	}
	hh, n1 := conv.Atou(v[0:2])
	mm, n2 := conv.Atou(v[2:4])
	if n1 != 2 || n2 != 2 {
		return 0, 0, 0, errcode.New(errcode.InvalidParams, "gnss.parse_utc", "bad time field")
	}
	sec, err = parseFloat32(v[4:])
	return uint8(hh), uint8(mm), sec, err
}

func parseUint(v []byte) (uint64, error) {
	if len(v) == 0 {
		return 0, nil
	}
	u, err := strconvx.ParseUint(v, 10, 8)
	return u, errcode.Wrap(errcode.InvalidParams, "gnss.parse", err)
}

func parseFloat32(v []byte) (float32, error) {
	if len(v) == 0 {
		return 0, nil
	}
	f, err := strconvx.ParseFloat(v, 32)
	return float32(f), errcode.Wrap(errcode.InvalidParams, "gnss.parse", err)
}
