package pest

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/suite"
)

type MessageTestSuite struct {
	suite.Suite
	msg *Message
}

func (s *MessageTestSuite) SetupTest() {
	s.msg = &Message{Type: Coordinate, Value: coord(1, 2)}
}

func (s *MessageTestSuite) TestSize() {
	s.Assert().Equal(16, s.msg.Size())
	s.Assert().Zero((&Message{Type: Coordinate, Value: "bad"}).Size())
}

func (s *MessageTestSuite) TestMarshalBinary() {
	data, err := s.msg.MarshalBinary()
	s.Require().NoError(err)
	s.Assert().Equal(mustEncode(s.T(), coord(1, 2), Coordinate), data)
}

func (s *MessageTestSuite) TestMarshalTo() {
	buf := make([]byte, 32)
	n, err := s.msg.MarshalTo(buf)
	s.Require().NoError(err)
	s.Assert().Equal(16, n)
	s.Assert().Equal(mustEncode(s.T(), coord(1, 2), Coordinate), buf[:n])

	_, err = s.msg.MarshalTo(make([]byte, 8))
	s.Assert().ErrorIs(err, io.ErrShortBuffer)
}

func (s *MessageTestSuite) TestWriteToReadFrom() {
	var buf bytes.Buffer
	n, err := s.msg.WriteTo(&buf)
	s.Require().NoError(err)
	s.Assert().EqualValues(16, n)

	got := &Message{Type: Coordinate}
	rn, err := got.ReadFrom(&buf)
	s.Require().NoError(err)
	s.Assert().EqualValues(16, rn)
	s.Assert().Equal(coord(1, 2), got.Value)
}

func (s *MessageTestSuite) TestUnmarshalBinary() {
	data, err := s.msg.MarshalBinary()
	s.Require().NoError(err)

	got := &Message{Type: Coordinate}
	s.Require().NoError(got.UnmarshalBinary(data))
	s.Assert().Equal(coord(1, 2), got.Value)

	wrong := &Message{Type: Coordinate3D}
	s.Assert().ErrorIs(wrong.UnmarshalBinary(data), ErrTypeMismatch)
}

func (s *MessageTestSuite) TestMissingType() {
	m := &Message{Value: 1}
	_, err := m.MarshalBinary()
	s.Assert().ErrorIs(err, ErrUnknownType)
	_, err = m.MarshalTo(make([]byte, 64))
	s.Assert().ErrorIs(err, ErrUnknownType)
	s.Assert().ErrorIs(m.UnmarshalBinary([]byte{0}), ErrUnknownType)
}

func TestMessage(t *testing.T) {
	suite.Run(t, new(MessageTestSuite))
}
