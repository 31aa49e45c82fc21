package db

import (
	"github.com/jackc/pgx/v5"

	"github.com/gyeh/nephtrends/internal/model"
)

// ChannelSource implements pgx.CopyFromSource by reading StagingRows from a
// channel, so the document decoder and the COPY writer run concurrently.
type ChannelSource struct {
	ch      <-chan *model.StagingRow
	current *model.StagingRow
	count   int64
}

// NewChannelSource creates a CopyFromSource backed by a channel.
func NewChannelSource(ch <-chan *model.StagingRow) *ChannelSource {
	return &ChannelSource{ch: ch}
}

// Next advances to the next row. Returns false when the channel is closed.
func (s *ChannelSource) Next() bool {
	row, ok := <-s.ch
	if !ok {
		return false
	}
	s.current = row
	s.count++
	return true
}

// Values returns the current row's values in COPY column order.
func (s *ChannelSource) Values() ([]any, error) {
	return s.current.CopyValues(), nil
}

// Err always returns nil; producer errors travel on their own channel.
func (s *ChannelSource) Err() error {
	return nil
}

// Count reports how many rows have been handed to COPY.
func (s *ChannelSource) Count() int64 {
	return s.count
}

var _ pgx.CopyFromSource = (*ChannelSource)(nil)
