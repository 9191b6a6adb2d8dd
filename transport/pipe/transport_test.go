package pipe

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/suite"
	"go.uber.org/goleak"
)

type TransportTestSuite struct {
	suite.Suite

	transport *Transport
}

func TestTransportTestSuite(t *testing.T) {
	suite.Run(t, new(TransportTestSuite))
}

func (s *TransportTestSuite) SetupTest() {
	s.transport = NewTransport(clock.New())
}

func (s *TransportTestSuite) TearDownTest() {
	goleak.VerifyNone(s.T())
}

func (s *TransportTestSuite) TestListen() {
	lis, err := s.transport.Listen("10.0.0.1:80")
	s.Require().NoError(err)
	s.Equal("10.0.0.1:80", lis.Addr().String())

	_, err = s.transport.Listen("10.0.0.1:80")
	s.ErrorIs(err, ErrAddrInUse)

	s.Require().NoError(lis.Close())
	s.ErrorIs(lis.Close(), ErrConnListenerClosed)

	// Address is free again.
	lis, err = s.transport.Listen("10.0.0.1:80")
	s.Require().NoError(err)
	s.NoError(lis.Close())
}

func (s *TransportTestSuite) TestDial() {
	lis, err := s.transport.Listen("10.0.0.1:80")
	s.Require().NoError(err)
	defer lis.Close()

	var wg sync.WaitGroup
	defer wg.Wait()

	wg.Add(1)
	go func() {
		defer wg.Done()
		conn, err := lis.Accept(context.Background())
		s.Require().NoError(err)
		defer conn.Close()

		_, err = conn.Write([]byte("hi"))
		s.NoError(err)
	}()

	conn, err := s.transport.DialContext(context.Background(), "tcp", "10.0.0.1:80")
	s.Require().NoError(err)
	defer conn.Close()

	s.Equal("10.0.0.1:80", conn.RemoteAddr().String())

	got, err := io.ReadAll(conn)
	s.Require().NoError(err)
	s.Equal("hi", string(got))
}

func (s *TransportTestSuite) TestDialRefused() {
	_, err := s.transport.DialContext(context.Background(), "tcp", "10.0.0.1:80")
	s.ErrorIs(err, ErrConnRefused)

	lis, err := s.transport.Listen("10.0.0.1:80")
	s.Require().NoError(err)
	s.Require().NoError(lis.Close())

	_, err = s.transport.DialContext(context.Background(), "tcp", "10.0.0.1:80")
	s.ErrorIs(err, ErrConnRefused)
}

func (s *TransportTestSuite) TestDialCancels() {
	lis, err := s.transport.Listen("10.0.0.1:80")
	s.Require().NoError(err)
	defer lis.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Nobody accepts.
	_, err = s.transport.DialContext(ctx, "tcp", "10.0.0.1:80")
	s.ErrorIs(err, context.Canceled)
}

func (s *TransportTestSuite) TestAcceptCancels() {
	lis, err := s.transport.Listen("10.0.0.1:80")
	s.Require().NoError(err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = lis.Accept(ctx)
	s.ErrorIs(err, context.Canceled)

	s.Require().NoError(lis.Close())
	_, err = lis.Accept(context.Background())
	s.ErrorIs(err, ErrConnListenerClosed)
}
