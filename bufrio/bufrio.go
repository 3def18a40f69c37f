// Package bufrio finds BUFR messages in a byte stream.
//
// A stream is a plain file of messages, or a bulletin file where each message is
// preceded by a transmission header carrying an abbreviated heading line (AHL).
// The scanner checks the framing of every message, it does not decode it.
package bufrio

import (
	"bytes"
	"fmt"
	"io"
	"iter"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
	"github.com/sdifrance/gobufr/bitcursor"
	"github.com/sdifrance/gobufr/message"
	"github.com/sirupsen/logrus"
)

var (
	// ErrNoInput is returned when neither a path nor data is supplied.
	ErrNoInput = errors.New("no data")
	// ErrCorruptMessage is wrapped by every FramingError.
	ErrCorruptMessage = errors.New("bufr offset/length error")
)

var (
	startMarker = []byte("BUFR")
	endMarker   = []byte("7777")
	zstdMagic   = []byte{0x28, 0xB5, 0x2F, 0xFD}
)

// trailingSlack is the number of octets at the end of a stream in which a
// start marker is no longer searched for.
const trailingSlack = 30

// Message is one framed BUFR message.
type Message struct {
	// Data starts with "BUFR" and ends with "7777".
	Data []byte
	// Size is the total length declared in section 0. It equals len(Data).
	Size int
	// Header is the abbreviated heading line preceding the message, "" if
	// none was found since the previous message.
	Header string
	// Offset is the position of "BUFR" in the stream.
	Offset int
}

// Sections splits the message into its sections.
func (m *Message) Sections() (*message.Message, error) {
	return message.Parse(m.Data)
}

func (m *Message) String() string {
	if m.Header == "" {
		return fmt.Sprintf("BUFR @ %d, %d octets", m.Offset, m.Size)
	}
	return fmt.Sprintf("BUFR @ %d, %d octets, %q", m.Offset, m.Size, m.Header)
}

// FramingError reports a message whose declared length does not end on the
// "7777" marker. Scanning may go on from End.
type FramingError struct {
	Start  int
	End    int
	Size   int
	Header string
}

func (e *FramingError) Error() string {
	return fmt.Sprintf("bufr offset/length error: message @ %d declares %d octets, end '7777' not found at %d", e.Start, e.Size, e.End)
}

// Unwrap makes errors.Is(err, ErrCorruptMessage) hold.
func (e *FramingError) Unwrap() error { return ErrCorruptMessage }

// Option configures a Scanner.
type Option func(*Scanner)

// WithLogger sets the sink for scan traces.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Scanner) { s.log = l }
}

// Scanner yields the messages of a stream one at a time.
type Scanner struct {
	data []byte
	off  int
	log  logrus.FieldLogger
}

// NewScanner returns a scanner over data. data must not be nil.
func NewScanner(data []byte, opts ...Option) (*Scanner, error) {
	if data == nil {
		return nil, ErrNoInput
	}
	s := &Scanner{data: data}
	for _, o := range opts {
		o(s)
	}
	if s.log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		l.SetLevel(logrus.PanicLevel)
		s.log = l
	}
	return s, nil
}

// Open reads the whole file at path and returns a scanner over it.
func Open(path string, opts ...Option) (*Scanner, error) {
	if path == "" {
		return nil, ErrNoInput
	}
	data, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := NewScanner(data, opts...)
	if err != nil {
		return nil, err
	}
	s.log.WithField("path", path).Info("FILE")
	return s, nil
}

// ReadFile returns the contents of the file at path. Files compressed with
// zstd are recognized by their magic number and decompressed.
func ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading %s", path)
	}
	if !bytes.HasPrefix(data, zstdMagic) {
		return data, nil
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, errors.Wrap(err, "error creating zstd decoder")
	}
	defer dec.Close()
	plain, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "error decompressing %s", path)
	}
	return plain, nil
}

// Offset returns the stream position the next search starts from.
func (s *Scanner) Offset() int { return s.off }

// Next returns the next message. It returns io.EOF when no further start
// marker exists, and a *FramingError for a message without its end marker;
// after a FramingError the next call resumes after the claimed end.
func (s *Scanner) Next() (*Message, error) {
	if s.off >= len(s.data) {
		return nil, io.EOF
	}
	idx := bytes.Index(s.data[s.off:], startMarker)
	if idx < 0 || (idx > 0 && s.off+idx >= len(s.data)-trailingSlack) {
		s.off = len(s.data)
		return nil, io.EOF
	}
	start := s.off + idx

	// The heading belongs to this message only.
	header := findHeader(s.data[s.off:start])
	s.log.WithFields(logrus.Fields{
		"from":   s.off,
		"to":     start,
		"header": header,
	}).Debug("SEARCH AHL")

	if start+7 > len(s.data) {
		s.off = len(s.data)
		return nil, &FramingError{Start: start, End: len(s.data), Header: header}
	}
	_, size := bitcursor.Octets2Num(s.data, start+4, 3)
	end := start + int(size)
	s.off = end
	if end < start+8 {
		// A length this short cannot be a message; step over the marker.
		s.off = start + len(startMarker)
	}

	if end > len(s.data) || end < start+8 || !bytes.Equal(s.data[end-4:end], endMarker) {
		s.log.WithFields(logrus.Fields{"start": start, "end": end}).Error("End '7777' not found")
		return nil, &FramingError{Start: start, End: end, Size: int(size), Header: header}
	}

	s.log.WithFields(logrus.Fields{"start": start, "end": end}).Debugf("LOADED %d B", end-start)
	return &Message{
		Data:   s.data[start:end:end],
		Size:   int(size),
		Header: header,
		Offset: start,
	}, nil
}

// All iterates over the remaining messages. A FramingError is yielded with a
// nil message; iteration resumes after it unless the caller stops.
func (s *Scanner) All() iter.Seq2[*Message, error] {
	return func(yield func(*Message, error) bool) {
		for {
			m, err := s.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(m, err) {
				return
			}
		}
	}
}
