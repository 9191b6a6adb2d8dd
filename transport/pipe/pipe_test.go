package pipe

import (
	"bytes"
	"io"
	"net"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/suite"
	"go.uber.org/goleak"
)

type PipeTestSuite struct {
	suite.Suite

	C1, C2 *Conn
	Clock  *clock.Mock
}

func TestPipeTestSuite(t *testing.T) {
	suite.Run(t, new(PipeTestSuite))
}

func (s *PipeTestSuite) SetupTest() {
	s.Clock = clock.NewMock()
	s.C1, s.C2 = Pair("A", "B", s.Clock, 16)
}

func (s *PipeTestSuite) TearDownTest() {
	defer goleak.VerifyNone(s.T())
	s.NoError(s.C1.Close())
	s.NoError(s.C2.Close())
}

func (s *PipeTestSuite) TestAddr() {
	s.Equal("A", s.C1.LocalAddr().String())
	s.Equal("B", s.C1.RemoteAddr().String())
	s.Equal("pipe", s.C2.LocalAddr().Network())
}

func (s *PipeTestSuite) TestReadWrite() {
	data := []byte("Hello, World!")

	n, err := s.C1.Write(data)
	s.Require().NoError(err)
	s.Equal(len(data), n)

	buf := make([]byte, 10)
	n, err = s.C2.Read(buf)
	s.Require().NoError(err)
	s.Equal(len(buf), n)
	s.Equal(data[:n], buf)

	n, err = s.C2.Read(buf)
	s.Require().NoError(err)
	s.Equal(len(data)-len(buf), n)
	s.Equal(data[len(buf):], buf[:n])
}

func (s *PipeTestSuite) TestWriteWaitsForRoom() {
	data := bytes.Repeat([]byte("0123456789"), 10)

	var wg sync.WaitGroup
	defer wg.Wait()

	wg.Add(1)
	go func() {
		defer wg.Done()
		n, err := s.C1.Write(data)
		s.NoError(err)
		s.Equal(len(data), n)
	}()

	got := make([]byte, len(data))
	_, err := io.ReadFull(s.C2, got)
	s.Require().NoError(err)
	s.Equal(data, got)
}

func (s *PipeTestSuite) TestWriteRace() {
	data := []byte("ABCD")
	N := 10

	var wg sync.WaitGroup
	defer wg.Wait()

	wg.Add(1)
	go func() {
		defer wg.Done()
		var wwg sync.WaitGroup
		for range N {
			wwg.Add(1)
			go func() {
				defer wwg.Done()
				n, err := s.C1.Write(data)
				s.NoError(err)
				s.Equal(len(data), n)
			}()
		}
		wwg.Wait()
		s.NoError(s.C1.Close())
	}()

	result, err := io.ReadAll(s.C2)
	s.Require().NoError(err)
	s.Equal(bytes.Repeat(data, N), result)
}

func (s *PipeTestSuite) TestClose() {
	s.Require().NoError(s.C1.Close())
	s.Require().NoError(s.C1.Close())

	buf := make([]byte, 4)

	_, err := s.C1.Read(buf)
	s.ErrorIs(err, net.ErrClosed)
	_, err = s.C1.Write(buf)
	s.ErrorIs(err, net.ErrClosed)

	_, err = s.C2.Read(buf)
	s.ErrorIs(err, io.EOF)
	_, err = s.C2.Write(buf)
	s.ErrorIs(err, io.ErrClosedPipe)
}

func (s *PipeTestSuite) TestReadAfterPeerClose() {
	_, err := s.C2.Write([]byte("last words"))
	s.Require().NoError(err)
	s.Require().NoError(s.C2.Close())

	got, err := io.ReadAll(s.C1)
	s.Require().NoError(err)
	s.Equal("last words", string(got))
}

func (s *PipeTestSuite) TestReadBeforeClose() {
	done := make(chan error)
	go func() {
		_, err := s.C1.Read(make([]byte, 1))
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	s.Require().NoError(s.C1.Close())
	s.ErrorIs(<-done, net.ErrClosed)
}

func (s *PipeTestSuite) TestReadDeadline() {
	s.Require().NoError(s.C1.SetReadDeadline(s.Clock.Now().Add(time.Second)))

	done := make(chan error)
	go func() {
		_, err := s.C1.Read(make([]byte, 1))
		done <- err
	}()

	s.Clock.Add(2 * time.Second)
	s.ErrorIs(<-done, os.ErrDeadlineExceeded)

	// Clearing the deadline makes the conn usable again.
	s.Require().NoError(s.C1.SetDeadline(time.Time{}))
	_, err := s.C2.Write([]byte("x"))
	s.Require().NoError(err)
	n, err := s.C1.Read(make([]byte, 1))
	s.NoError(err)
	s.Equal(1, n)
}

func (s *PipeTestSuite) TestWriteDeadline() {
	s.Require().NoError(s.C1.SetWriteDeadline(s.Clock.Now()))

	n, err := s.C1.Write([]byte("late"))
	s.ErrorIs(err, os.ErrDeadlineExceeded)
	s.Zero(n)
}
