// Package message splits a framed BUFR message into its sections.
//
// The layouts follow WMO FM 94 BUFR editions 3 and 4, see
// https://library.wmo.int/idurl/4/35625 (Manual on Codes, Volume I.2) and
// https://codes.ecmwf.int/bufr/format/.
package message

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/sdifrance/gobufr/tableb"
)

// ErrTruncated is returned when a section extends past the message.
var ErrTruncated = errors.New("section truncated")

// Message is a BUFR message split into sections.
type Message struct {
	ind      *indicatorSection
	ident    *Identification
	optional []byte
	desc     *DataDescription
	data     []byte
}

// Edition returns the BUFR edition number from section 0.
func (m *Message) Edition() int { return int(m.ind.edition) }

// Length returns the total length declared in section 0.
func (m *Message) Length() int { return int(m.ind.messageLength) }

// Identification returns section 1.
func (m *Message) Identification() *Identification { return m.ident }

// Optional returns the content of section 2, nil if it is absent.
func (m *Message) Optional() []byte { return m.optional }

// DataDescription returns section 3.
func (m *Message) DataDescription() *DataDescription { return m.desc }

// Data returns section 4 after its 4 octet header; this is where the bit
// cursor starts.
func (m *Message) Data() []byte { return m.data }

func (m *Message) String() string {
	return fmt.Sprintf("edition %d, %d octets, centre %d, category %d, %s, %d subsets (compressed=%t)",
		m.Edition(), m.Length(), m.ident.centre, m.ident.dataCategory, m.ident.refTime.Format(time.RFC3339),
		m.desc.subsets, m.desc.Compressed())
}

// Parse splits data, which must hold exactly one message from "BUFR" to
// "7777".
func Parse(data []byte) (*Message, error) {
	sec0 := &indicatorSection{}
	bytesRead, err := sec0.parseBytes(data)
	if err != nil {
		return nil, errors.Wrap(err, "error parsing indicator section")
	}
	unconsumed := data[bytesRead:]

	sec1 := &Identification{}
	bytesRead, err = sec1.parseBytes(unconsumed, sec0.edition)
	if err != nil {
		return nil, errors.Wrap(err, "error parsing identification section")
	}
	unconsumed = unconsumed[bytesRead:]

	var sec2 []byte
	if sec1.OptionalSectionIncluded() {
		sec2, bytesRead, err = parseOptional(unconsumed)
		if err != nil {
			return nil, errors.Wrap(err, "error parsing optional section")
		}
		unconsumed = unconsumed[bytesRead:]
	}

	sec3 := &DataDescription{}
	bytesRead, err = sec3.parseBytes(unconsumed)
	if err != nil {
		return nil, errors.Wrap(err, "error parsing data description section")
	}
	unconsumed = unconsumed[bytesRead:]

	sec4, bytesRead, err := parseDataSection(unconsumed)
	if err != nil {
		return nil, errors.Wrap(err, "error parsing data section")
	}
	unconsumed = unconsumed[bytesRead:]

	if err := parseEndSection(unconsumed); err != nil {
		return nil, errors.Wrap(err, "error parsing end section")
	}
	unconsumed = unconsumed[4:]

	consumedCount := len(data) - len(unconsumed)
	if consumedCount != int(sec0.messageLength) {
		return nil, errors.Errorf("consumed %d octets, expected to consume %d based on message length in section 0", consumedCount, sec0.messageLength)
	}

	return &Message{sec0, sec1, sec2, sec3, sec4}, nil
}

type indicatorSection struct {
	messageLength uint32
	edition       uint8
}

func (is *indicatorSection) parseBytes(data []byte) (int, error) {
	/*
		Octets	Content
		1-4	BUFR (coded according to the CCITT International Alphabet No. 5)
		5-7	Total length of BUFR message, in octets (including Section 0)
		8	BUFR edition number
	*/
	if len(data) < 8 {
		return 0, errors.Wrapf(ErrTruncated, "indicator section needs 8 octets, got %d", len(data))
	}
	if got, want := string(data[0:4]), "BUFR"; got != want {
		return 0, errors.Errorf("first four octets = %q, want %q", got, want)
	}
	is.messageLength = parse3ByteUint(data[4], data[5], data[6])
	is.edition = data[7]
	if is.edition < 2 || is.edition > 4 {
		return 0, errors.Errorf("unsupported BUFR edition %d", is.edition)
	}
	if int(is.messageLength) > len(data) {
		return 0, errors.Wrapf(ErrTruncated, "message length is %d, but only %d octets supplied", is.messageLength, len(data))
	}
	return 8, nil
}

// Identification is section 1.
type Identification struct {
	length           uint32
	masterTable      uint8
	centre           uint16
	subCentre        uint16
	updateSequence   uint8
	flags            uint8
	dataCategory     uint8
	intlSubCategory  uint8
	localSubCategory uint8
	masterVersion    uint8
	localVersion     uint8
	refTime          time.Time
}

// Centre returns the originating centre (common code table C-1/C-11).
func (s *Identification) Centre() int { return int(s.centre) }

// SubCentre returns the originating sub-centre.
func (s *Identification) SubCentre() int { return int(s.subCentre) }

// MasterTable returns the master table number, 0 for meteorology.
func (s *Identification) MasterTable() int { return int(s.masterTable) }

// DataCategory returns the data category (BUFR table A).
func (s *Identification) DataCategory() int { return int(s.dataCategory) }

// SubCategory returns the international and the local data sub-category. The
// international one is 0 for editions before 4.
func (s *Identification) SubCategory() (intl, local int) {
	return int(s.intlSubCategory), int(s.localSubCategory)
}

// TableVersions returns the version numbers of the master and local tables.
func (s *Identification) TableVersions() (master, local int) {
	return int(s.masterVersion), int(s.localVersion)
}

// UpdateSequence returns the update sequence number.
func (s *Identification) UpdateSequence() int { return int(s.updateSequence) }

// RefTime returns the typical date and time of the data.
func (s *Identification) RefTime() time.Time { return s.refTime }

// Bit 1 of the section 1 flag.
const optionalSectionIncluded = 1 << 7

// OptionalSectionIncluded is true when section 2 is present.
func (s *Identification) OptionalSectionIncluded() bool {
	return s.flags&optionalSectionIncluded != 0
}

func (s *Identification) parseBytes(data []byte, edition uint8) (int, error) {
	/* Edition 3
	1-3	Length of section
	4	BUFR master table
	5	Originating/generating sub-centre
	6	Originating/generating centre
	7	Update sequence number
	8	Flag (bit 1: optional section follows)
	9	Data category (BUFR Table A)
	10	Data sub-category (local)
	11	Version number of master table
	12	Version number of local tables
	13-17	Year of century, month, day, hour, minute

	Edition 4
	1-3	Length of section
	4	BUFR master table
	5-6	Originating/generating centre
	7-8	Originating/generating sub-centre
	9	Update sequence number
	10	Flag (bit 1: optional section follows)
	11	Data category (BUFR Table A)
	12	International data sub-category
	13	Local sub-category
	14	Version number of master table
	15	Version number of local tables
	16-17	Year (4 digits)
	18-22	Month, day, hour, minute, second
	*/
	need := 17
	if edition >= 4 {
		need = 22
	}
	if len(data) < need {
		return 0, errors.Wrapf(ErrTruncated, "identification section needs %d octets, got %d", need, len(data))
	}
	s.length = parse3ByteUint(data[0], data[1], data[2])
	if int(s.length) > len(data) || int(s.length) < need {
		return 0, errors.Wrapf(ErrTruncated, "section 1 claims length %d, data size %d", s.length, len(data))
	}
	s.masterTable = data[3]
	var err error
	if edition >= 4 {
		s.centre = uint16(parse2ByteUint(data[4], data[5]))
		s.subCentre = uint16(parse2ByteUint(data[6], data[7]))
		s.updateSequence = data[8]
		s.flags = data[9]
		s.dataCategory = data[10]
		s.intlSubCategory = data[11]
		s.localSubCategory = data[12]
		s.masterVersion = data[13]
		s.localVersion = data[14]
		s.refTime, err = DateTime(data[15:22], 4)
	} else {
		s.subCentre = uint16(data[4])
		s.centre = uint16(data[5])
		s.updateSequence = data[6]
		s.flags = data[7]
		s.dataCategory = data[8]
		s.localSubCategory = data[9]
		s.masterVersion = data[10]
		s.localVersion = data[11]
		s.refTime, err = DateTime(data[12:17], 3)
	}
	if err != nil {
		return 0, err
	}
	return int(s.length), nil
}

func parseOptional(data []byte) ([]byte, int, error) {
	// 1-3 length, 4 reserved, 5- reserved for local use.
	n, err := sectionLength(data, 4)
	if err != nil {
		return nil, 0, err
	}
	return data[4:n], n, nil
}

// DataDescription is section 3.
type DataDescription struct {
	length  uint32
	subsets uint16
	flags   uint8
	descr   []tableb.Descriptor
}

// Bits 1 and 2 of section 3 octet 7.
const (
	observedData   = 1 << 7
	compressedData = 1 << 6
)

// Subsets returns the number of data subsets.
func (s *DataDescription) Subsets() int { return int(s.subsets) }

// Observed is true for observed data, false for other data such as forecasts.
func (s *DataDescription) Observed() bool { return s.flags&observedData != 0 }

// Compressed is true when section 4 holds compressed data.
func (s *DataDescription) Compressed() bool { return s.flags&compressedData != 0 }

// Descriptors returns the unexpanded descriptor list.
func (s *DataDescription) Descriptors() []tableb.Descriptor { return s.descr }

func (s *DataDescription) parseBytes(data []byte) (int, error) {
	/*
		1-3	Length of section
		4	Reserved
		5-6	Number of data subsets
		7	Flag (bit 1: observed data, bit 2: compressed data)
		8-	Descriptors, 2 octets each: F (2 bits), X (6 bits), Y (8 bits)
	*/
	n, err := sectionLength(data, 7)
	if err != nil {
		return 0, err
	}
	s.length = uint32(n)
	s.subsets = uint16(parse2ByteUint(data[4], data[5]))
	s.flags = data[6]
	// An odd length is padded with one octet.
	for i := 7; i+1 < n; i += 2 {
		f := int(data[i] >> 6)
		x := int(data[i] & 0x3F)
		y := int(data[i+1])
		s.descr = append(s.descr, tableb.FXY(f, x, y))
	}
	return n, nil
}

func parseDataSection(data []byte) ([]byte, int, error) {
	// 1-3 length, 4 reserved, 5- data.
	n, err := sectionLength(data, 4)
	if err != nil {
		return nil, 0, err
	}
	return data[4:n], n, nil
}

func parseEndSection(data []byte) error {
	if len(data) < 4 {
		return errors.Wrapf(ErrTruncated, "got end section length %d, expected at least 4", len(data))
	}
	if got, want := string(data[0:4]), "7777"; got != want {
		return errors.Errorf("got end sequence %q, want %q", got, want)
	}
	return nil
}

// sectionLength reads the 3 octet length opening a section and checks it
// against the remaining data.
func sectionLength(data []byte, need int) (int, error) {
	if len(data) < 3 {
		return 0, errors.Wrapf(ErrTruncated, "no section length in %d octets", len(data))
	}
	n := int(parse3ByteUint(data[0], data[1], data[2]))
	if n < need || n > len(data) {
		return 0, errors.Wrapf(ErrTruncated, "section claims length %d, data size %d", n, len(data))
	}
	return n, nil
}
