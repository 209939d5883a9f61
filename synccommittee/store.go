package synccommittee

import (
	"encoding/binary"
	"fmt"
	"slices"

	"github.com/ethereum/go-ethereum/common"

	"github.com/eth2030/stateless/beacon"
	"github.com/eth2030/stateless/crypto/bls"
	"github.com/eth2030/stateless/log"
	"github.com/eth2030/stateless/storage"
)

// KeysSize is the size of one stored committee: 512 compressed keys.
const KeysSize = beacon.SyncCommitteeSize * bls.PublicKeySize

// Storage keys.
const (
	statesKey     = "states"
	checkpointKey = "checkpoint"
)

func periodKey(period uint64) string { return fmt.Sprintf("sync_%d", period) }

// Store keeps committee key sets by period on a storage plugin. The
// "states" entry lists the stored periods in insertion order as
// little-endian uint64s; the oldest are evicted once MaxSyncStates is
// exceeded.
type Store struct {
	db  storage.Storage
	log *log.Logger
}

// NewStore wraps db.
func NewStore(db storage.Storage) *Store {
	return &Store{db: db, log: log.Default().Module("synccommittee")}
}

// Storage returns the underlying plugin.
func (s *Store) Storage() storage.Storage { return s.db }

func (s *Store) states() ([]uint64, error) {
	b, found, err := s.db.Get(statesKey)
	if err != nil || !found {
		return nil, err
	}
	if len(b)%8 != 0 {
		return nil, fmt.Errorf("%w: states entry of %d bytes", ErrCorruptStore, len(b))
	}
	out := make([]uint64, len(b)/8)
	for i := range out {
		out[i] = binary.LittleEndian.Uint64(b[i*8:])
	}
	return out, nil
}

func (s *Store) setStates(periods []uint64) error {
	b := make([]byte, 0, 8*len(periods))
	for _, p := range periods {
		b = binary.LittleEndian.AppendUint64(b, p)
	}
	return s.db.Set(statesKey, b)
}

// Keys returns the concatenated public keys of period.
func (s *Store) Keys(period uint64) ([]byte, bool, error) {
	b, found, err := s.db.Get(periodKey(period))
	if err != nil || !found {
		return nil, false, err
	}
	if len(b) != KeysSize {
		return nil, false, fmt.Errorf("%w: period %d holds %d bytes", ErrCorruptStore, period, len(b))
	}
	return b, true, nil
}

// Put stores the key set of period and evicts the oldest periods beyond
// the storage's MaxSyncStates.
func (s *Store) Put(period uint64, keys []byte) error {
	if len(keys) != KeysSize {
		return fmt.Errorf("%w: %d bytes", ErrInvalidCommittee, len(keys))
	}
	states, err := s.states()
	if err != nil {
		return err
	}
	if err := s.db.Set(periodKey(period), keys); err != nil {
		return err
	}
	if !slices.Contains(states, period) {
		states = append(states, period)
	}
	for limit := s.db.MaxSyncStates(); len(states) > limit; states = states[1:] {
		if err := s.db.Delete(periodKey(states[0])); err != nil {
			return err
		}
		s.log.Debug("evicted sync committee", "period", states[0])
	}
	if err := s.setStates(states); err != nil {
		return err
	}
	s.log.Debug("stored sync committee", "period", period)
	return nil
}

// Periods returns the stored periods in ascending order.
func (s *Store) Periods() ([]uint64, error) {
	states, err := s.states()
	if err != nil {
		return nil, err
	}
	slices.Sort(states)
	return states, nil
}

// LastPeriod returns the highest stored period.
func (s *Store) LastPeriod() (uint64, bool, error) {
	periods, err := s.Periods()
	if err != nil || len(periods) == 0 {
		return 0, false, err
	}
	return periods[len(periods)-1], true, nil
}

// Missing describes what must be fetched before period can be used.
func (s *Store) Missing(period uint64) (*MissingPeriodError, error) {
	last, ok, err := s.LastPeriod()
	if err != nil {
		return nil, err
	}
	first := period
	if ok && last < period {
		first = last + 1
	}
	return &MissingPeriodError{First: first, Last: period}, nil
}

// SetCheckpoint records a trusted beacon block root.
func (s *Store) SetCheckpoint(root common.Hash) error {
	return s.db.Set(checkpointKey, root.Bytes())
}

// Checkpoint returns the trusted beacon block root, if one was recorded.
func (s *Store) Checkpoint() (common.Hash, bool, error) {
	b, found, err := s.db.Get(checkpointKey)
	if err != nil || !found {
		return common.Hash{}, false, err
	}
	if len(b) != common.HashLength {
		return common.Hash{}, false, fmt.Errorf("%w: checkpoint of %d bytes", ErrCorruptStore, len(b))
	}
	return common.BytesToHash(b), true, nil
}
