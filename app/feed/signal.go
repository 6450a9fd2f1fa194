package feed

import (
	"encoding/json"
	"math/rand/v2"
	"sync"
	"time"
)

// Signal is an external per-topic annotation attached to every record of that topic.
type Signal struct {
	Gas        int    `json:"gas"`
	Volatility string `json:"vol"`
}

type SignalSource interface {
	Signal(topic string) Signal
}

var neutralSignal = Signal{Gas: 0, Volatility: "n/a"}

// ChainSignalStub stands in for an on-chain data provider. Recognized topics
// get a gas fee in [20, 150] and a coarse volatility label; the answers are
// random, so two runs over the same items disagree.
type ChainSignalStub struct {
	recognized map[string]struct{}
	mu         sync.Mutex
	rng        *rand.Rand
}

func NewChainSignalStub(topics []string, rng *rand.Rand) *ChainSignalStub {
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1))
	}

	recognized := make(map[string]struct{}, len(topics))
	for _, topic := range topics {
		recognized[topic] = struct{}{}
	}

	return &ChainSignalStub{
		recognized: recognized,
		rng:        rng,
	}
}

func (s *ChainSignalStub) Signal(topic string) Signal {
	if _, ok := s.recognized[topic]; !ok {
		return neutralSignal
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	gas := 20 + s.rng.IntN(131)
	volatility := "low"
	if s.rng.Float64() > 0.5 {
		volatility = "high"
	}

	return Signal{Gas: gas, Volatility: volatility}
}

func encodeSignal(signal Signal) string {
	data, err := json.Marshal(signal)
	if err != nil {
		return emptyMeta
	}
	return string(data)
}
