package eventlog

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"credentia/pkg/testutil"
)

type recordingArchiver struct {
	mu      sync.Mutex
	entries []Entry
	err     error
}

func (a *recordingArchiver) Archive(_ context.Context, entry Entry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, entry)
	return a.err
}

// tickingClock advances one second per reading and yields afterwards, so a
// goroutine that stamps an entry is likely to be overtaken before it stores it.
type tickingClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *tickingClock) Now() time.Time {
	c.mu.Lock()
	c.now = c.now.Add(time.Second)
	now := c.now
	c.mu.Unlock()
	runtime.Gosched()
	return now
}

func (c *tickingClock) After(time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- c.Now()
	return ch
}

type EventLogSuite struct {
	suite.Suite
	clock *testutil.ManualClock
	log   *Log
	ctx   context.Context
}

func (s *EventLogSuite) SetupTest() {
	s.clock = testutil.NewManualClock(time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC))
	s.log = New(WithClock(s.clock))
	s.ctx = context.Background()
}

func (s *EventLogSuite) TestNewestFirst() {
	s.log.Info(s.ctx, "first")
	s.clock.Advance(time.Second)
	s.log.Success(s.ctx, "second")
	s.clock.Advance(time.Second)
	s.log.Error(s.ctx, "third")

	entries := s.log.Entries()
	require.Len(s.T(), entries, 3)
	assert.Equal(s.T(), "third", entries[0].Message)
	assert.Equal(s.T(), SeverityError, entries[0].Severity)
	assert.Equal(s.T(), "second", entries[1].Message)
	assert.Equal(s.T(), SeveritySuccess, entries[1].Severity)
	assert.Equal(s.T(), "first", entries[2].Message)
	assert.Equal(s.T(), SeverityInfo, entries[2].Severity)
}

func (s *EventLogSuite) TestEntryIsStampedFromClock() {
	entry := s.log.Info(s.ctx, "hello")
	assert.Equal(s.T(), s.clock.Now(), entry.Time)
	assert.Equal(s.T(), "09:26:53", entry.Display)
}

func (s *EventLogSuite) TestEntriesReturnsCopy() {
	s.log.Info(s.ctx, "original")
	entries := s.log.Entries()
	entries[0].Message = "tampered"
	assert.Equal(s.T(), "original", s.log.Entries()[0].Message)
}

func (s *EventLogSuite) TestCapacityEvictsOldest() {
	log := New(WithClock(s.clock), WithCapacity(3))
	for i := 0; i < 5; i++ {
		log.Info(s.ctx, fmt.Sprintf("entry-%d", i))
	}

	entries := log.Entries()
	require.Len(s.T(), entries, 3)
	assert.Equal(s.T(), 3, log.Len())
	assert.Equal(s.T(), "entry-4", entries[0].Message)
	assert.Equal(s.T(), "entry-2", entries[2].Message)
}

func (s *EventLogSuite) TestArchiverReceivesEveryEntry() {
	archiver := &recordingArchiver{}
	log := New(WithClock(s.clock), WithCapacity(1), WithArchiver(archiver))
	log.Info(s.ctx, "a")
	log.Info(s.ctx, "b")

	require.Len(s.T(), archiver.entries, 2)
	assert.Equal(s.T(), "a", archiver.entries[0].Message)
	assert.Equal(s.T(), "b", archiver.entries[1].Message)
	assert.Equal(s.T(), 1, log.Len())
}

func (s *EventLogSuite) TestArchiverFailureDoesNotDropEntry() {
	archiver := &recordingArchiver{err: errors.New("broker down")}
	log := New(WithClock(s.clock), WithArchiver(archiver))
	log.Error(s.ctx, "still recorded")

	assert.Equal(s.T(), 1, log.Len())
	assert.Equal(s.T(), "still recorded", log.Entries()[0].Message)
}

func (s *EventLogSuite) TestSubscribe() {
	s.Run("receives entries recorded after subscribing", func() {
		s.log.Info(s.ctx, "before")
		ch, cancel := s.log.Subscribe(4)
		defer cancel()

		s.log.Success(s.ctx, "after")
		select {
		case entry := <-ch:
			assert.Equal(s.T(), "after", entry.Message)
		case <-time.After(time.Second):
			s.T().Fatal("expected entry on subscription")
		}
	})

	s.Run("slow subscriber drops instead of blocking", func() {
		ch, cancel := s.log.Subscribe(1)
		defer cancel()

		s.log.Info(s.ctx, "one")
		s.log.Info(s.ctx, "two")
		entry := <-ch
		assert.Equal(s.T(), "one", entry.Message)
		select {
		case <-ch:
			s.T().Fatal("second entry should have been dropped")
		default:
		}
	})

	s.Run("cancel closes the channel and is idempotent", func() {
		ch, cancel := s.log.Subscribe(0)
		cancel()
		cancel()
		_, open := <-ch
		assert.False(s.T(), open)
		s.log.Info(s.ctx, "no panic after cancel")
	})
}

func (s *EventLogSuite) TestConcurrentRecord() {
	testutil.RunConcurrent(100, func(idx int) error {
		s.log.Info(s.ctx, fmt.Sprintf("entry-%d", idx))
		return nil
	})
	assert.Equal(s.T(), 100, s.log.Len())
}

func (s *EventLogSuite) TestConcurrentRecordKeepsTimeOrder() {
	clk := &tickingClock{now: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)}
	log := New(WithClock(clk))

	testutil.RunConcurrent(200, func(idx int) error {
		log.Info(s.ctx, fmt.Sprintf("entry-%d", idx))
		return nil
	})

	entries := log.Entries()
	require.Len(s.T(), entries, 200)
	for i := 1; i < len(entries); i++ {
		require.True(s.T(), entries[i-1].Time.After(entries[i].Time),
			"entry %d stamped %s is not newer than entry %d stamped %s",
			i-1, entries[i-1].Time, i, entries[i].Time)
	}
}

func TestEventLogSuite(t *testing.T) {
	suite.Run(t, new(EventLogSuite))
}
