package sim_test

import (
	"errors"
	"io"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	gomock "go.uber.org/mock/gomock"

	"github.com/sarchlab/cachesim/geometry"
	"github.com/sarchlab/cachesim/oracle"
	"github.com/sarchlab/cachesim/replacement"
	"github.com/sarchlab/cachesim/sim"
)

func mustGeometry(size, block uint64, assoc int) geometry.Geometry {
	g, err := geometry.New(geometry.Params{
		CacheSize:     size,
		BlockSize:     block,
		Associativity: assoc,
		AddressBits:   32,
	})
	Expect(err).NotTo(HaveOccurred())
	return g
}

func randomTrace(seed int64, n int, span uint64) []uint64 {
	rng := rand.New(rand.NewSource(seed))
	addrs := make([]uint64, n)
	for i := range addrs {
		addrs[i] = uint64(rng.Int63n(int64(span)))
	}
	return addrs
}

func kinds(s *sim.Simulator, addrs ...uint64) []sim.Kind {
	ks := make([]sim.Kind, 0, len(addrs))
	for _, addr := range addrs {
		ks = append(ks, s.Access(addr).Kind)
	}
	return ks
}

type sliceSource struct {
	addrs []uint64
	err   error
}

func (s *sliceSource) Next() (uint64, error) {
	if len(s.addrs) == 0 {
		if s.err != nil {
			return 0, s.err
		}
		return 0, io.EOF
	}
	addr := s.addrs[0]
	s.addrs = s.addrs[1:]
	return addr, nil
}

var _ = Describe("Simulator", func() {
	Describe("Classification", func() {
		It("should classify the two-set aliasing trace", func() {
			// 128B cache, 64B lines, direct-mapped: 2 sets.
			// 0 and 128 share set 0; 64 lives alone in set 1.
			s := sim.New(mustGeometry(128, 64, 1), replacement.LRU)

			Expect(kinds(s, 0, 64, 128, 0, 64, 128)).To(Equal([]sim.Kind{
				sim.MissCompulsory,
				sim.MissCompulsory,
				sim.MissCompulsory,
				sim.MissCapacity,
				sim.Hit,
				sim.MissCapacity,
			}))

			Expect(s.Stats()).To(Equal(sim.Statistics{
				Accesses:       6,
				Hits:           1,
				Misses:         5,
				MissCompulsory: 3,
				MissConflict:   0,
				MissCapacity:   2,
			}))
		})

		It("should report a conflict miss when only the set is full", func() {
			s := sim.New(mustGeometry(128, 64, 1), replacement.LRU)

			Expect(kinds(s, 0, 128, 0)).To(Equal([]sim.Kind{
				sim.MissCompulsory,
				sim.MissCompulsory,
				sim.MissConflict,
			}))
			Expect(s.Stats().MissConflict).To(Equal(uint64(1)))
		})

		It("should hit on different addresses in the same line", func() {
			s := sim.New(mustGeometry(4*1024, 64, 4), replacement.LRU)

			Expect(s.Access(0x1000).Kind).To(Equal(sim.MissCompulsory))
			o := s.Access(0x1004)
			Expect(o.Hit).To(BeTrue())
			Expect(o.Kind).To(Equal(sim.Hit))
		})

		It("should report the decomposed fields and evictions", func() {
			s := sim.New(mustGeometry(128, 64, 1), replacement.LRU)

			first := s.Access(0x0)
			Expect(first.Evicted).To(BeFalse())

			o := s.Access(0x80)
			Expect(o.Address).To(Equal(uint64(0x80)))
			Expect(o.BlockID).To(Equal(uint64(2)))
			Expect(o.Index).To(Equal(0))
			Expect(o.Tag).To(Equal(uint64(1)))
			Expect(o.Evicted).To(BeTrue())
			Expect(o.EvictedTag).To(Equal(uint64(0)))
		})

		It("should treat addresses beyond the address width as aliases", func() {
			s := sim.New(mustGeometry(4*1024, 64, 4), replacement.LRU)

			s.Access(0x40)
			Expect(s.Access(0x1_0000_0040).Hit).To(BeTrue())
		})
	})

	Describe("Replacement", func() {
		// One set, two ways: 0, 64, 128 are blocks A, B, C.
		const a, b, c uint64 = 0, 64, 128

		It("should keep the refreshed line under LRU", func() {
			s := sim.New(mustGeometry(128, 64, 2), replacement.LRU)
			kinds(s, a, b, a, c)

			Expect(s.SetTags(0)).To(Equal([]uint64{0, 2}))
			Expect(s.Access(a).Hit).To(BeTrue())
			Expect(s.Access(b).Hit).To(BeFalse())
		})

		It("should create sets as they are referenced", func() {
			// 64 MiB, direct-mapped: about a million sets and reference blocks.
			s := sim.New(mustGeometry(64<<20, 64, 1), replacement.LRU)
			Expect(s.SetTags(5)).To(BeEmpty())

			s.ReplayAll([]uint64{5 * 64, 5 * 64})
			Expect(s.SetTags(5)).To(Equal([]uint64{0}))
			Expect(s.Stats().Hits).To(Equal(uint64(1)))
		})

		It("should evict the first inserted line under FIFO", func() {
			s := sim.New(mustGeometry(128, 64, 2), replacement.FIFO)
			kinds(s, a, b, a, c)

			Expect(s.SetTags(0)).To(Equal([]uint64{1, 2}))
			Expect(s.Access(b).Hit).To(BeTrue())
			Expect(s.Access(a).Hit).To(BeFalse())
		})
	})

	Describe("Properties", func() {
		geometries := map[string]geometry.Geometry{}

		BeforeEach(func() {
			geometries = map[string]geometry.Geometry{
				"direct-mapped": mustGeometry(1024, 64, 1),
				"2-way":         mustGeometry(1024, 64, 2),
				"4-way":         mustGeometry(2048, 32, 4),
				"one set":       mustGeometry(512, 64, 8),
			}
		})

		It("should keep the counters consistent", func() {
			for name, g := range geometries {
				for _, policy := range []replacement.Policy{replacement.LRU, replacement.FIFO} {
					s := sim.New(g, policy)
					s.ReplayAll(randomTrace(7, 5000, 8*1024))

					st := s.Stats()
					Expect(st.Accesses).To(Equal(uint64(5000)), name)
					Expect(st.Hits+st.Misses).To(Equal(st.Accesses), name)
					Expect(st.MissCompulsory+st.MissConflict+st.MissCapacity).
						To(Equal(st.Misses), name)
				}
			}
		})

		It("should classify every first reference as compulsory", func() {
			g := geometries["2-way"]
			s := sim.New(g, replacement.LRU)
			seen := map[uint64]bool{}

			for _, addr := range randomTrace(11, 5000, 16*1024) {
				block := g.Decompose(addr).BlockID
				o := s.Access(addr)

				if !seen[block] {
					Expect(o.Kind).To(Equal(sim.MissCompulsory))
				} else {
					Expect(o.Kind).NotTo(Equal(sim.MissCompulsory))
				}
				seen[block] = true
			}

			Expect(s.Stats().MissCompulsory).To(Equal(uint64(len(seen))))
		})

		It("should never report conflict misses with a single LRU set", func() {
			g := geometries["one set"]
			Expect(g.NumSets()).To(Equal(1))

			s := sim.New(g, replacement.LRU)
			ref := oracle.NewFullyAssociative(g.TotalBlocks())

			for _, addr := range randomTrace(3, 5000, 2*1024) {
				refHit := ref.Access(g.Decompose(addr).BlockID)
				o := s.Access(addr)
				Expect(o.Hit).To(Equal(refHit))
			}

			Expect(s.Stats().MissConflict).To(BeZero())
		})

		It("should be deterministic", func() {
			addrs := randomTrace(5, 5000, 8*1024)

			first := sim.New(geometries["4-way"], replacement.FIFO)
			first.ReplayAll(addrs)
			second := sim.New(geometries["4-way"], replacement.FIFO)
			second.ReplayAll(addrs)

			Expect(second.Stats()).To(Equal(first.Stats()))
		})

		It("should match a plain direct-mapped model", func() {
			g := geometries["direct-mapped"]
			s := sim.New(g, replacement.LRU)

			lines := make([]uint64, g.NumSets())
			valid := make([]bool, g.NumSets())

			for _, addr := range randomTrace(13, 5000, 8*1024) {
				a := g.Decompose(addr)
				expectHit := valid[a.Index] && lines[a.Index] == a.Tag
				lines[a.Index], valid[a.Index] = a.Tag, true

				Expect(s.Access(addr).Hit).To(Equal(expectHit))
			}
		})

		It("should keep independent simulators apart", func() {
			one := sim.New(geometries["2-way"], replacement.LRU)
			two := sim.New(geometries["2-way"], replacement.LRU)

			one.Access(0x40)
			Expect(two.Access(0x40).Kind).To(Equal(sim.MissCompulsory))
		})
	})

	Describe("Collaborators", func() {
		var (
			mockCtrl *gomock.Controller
			ref      *MockOracle
			hook     *MockHook
			s        *sim.Simulator
		)

		BeforeEach(func() {
			mockCtrl = gomock.NewController(GinkgoT())
			ref = NewMockOracle(mockCtrl)
			hook = NewMockHook(mockCtrl)
			s = sim.New(mustGeometry(128, 64, 1), replacement.LRU,
				sim.WithOracle(ref), sim.WithHook(hook))
		})

		AfterEach(func() {
			mockCtrl.Finish()
		})

		It("should consult the oracle on hits and misses", func() {
			gomock.InOrder(
				ref.EXPECT().Access(uint64(0)).Return(false),
				ref.EXPECT().Access(uint64(0)).Return(false),
			)
			hook.EXPECT().OnAccess(gomock.Any()).Times(2)

			Expect(s.Access(0).Kind).To(Equal(sim.MissCompulsory))
			Expect(s.Access(0).Kind).To(Equal(sim.Hit))
		})

		It("should trust the oracle to tell conflict from capacity", func() {
			ref.EXPECT().Access(uint64(0)).Return(false)
			ref.EXPECT().Access(uint64(2)).Return(false)
			ref.EXPECT().Access(uint64(0)).Return(true)
			ref.EXPECT().Access(uint64(2)).Return(false)
			hook.EXPECT().OnAccess(gomock.Any()).Times(4)

			Expect(kinds(s, 0, 128, 0, 128)).To(Equal([]sim.Kind{
				sim.MissCompulsory,
				sim.MissCompulsory,
				sim.MissConflict,
				sim.MissCapacity,
			}))
		})

		It("should report compulsory even when the oracle hits", func() {
			ref.EXPECT().Access(uint64(1)).Return(true)
			hook.EXPECT().OnAccess(gomock.Any())

			Expect(s.Access(64).Kind).To(Equal(sim.MissCompulsory))
		})

		It("should pass the outcome to hooks", func() {
			ref.EXPECT().Access(gomock.Any()).Return(false)
			hook.EXPECT().OnAccess(sim.Outcome{
				Address: 64,
				BlockID: 1,
				Tag:     0,
				Index:   1,
				Kind:    sim.MissCompulsory,
			})

			s.Access(64)
		})
	})

	Describe("Replay", func() {
		It("should replay a source until EOF", func() {
			s := sim.New(mustGeometry(128, 64, 1), replacement.LRU)
			err := s.Replay(&sliceSource{addrs: []uint64{0, 64, 0}})

			Expect(err).NotTo(HaveOccurred())
			Expect(s.Stats().Accesses).To(Equal(uint64(3)))
			Expect(s.Stats().Hits).To(Equal(uint64(1)))
		})

		It("should stop at the first source error", func() {
			s := sim.New(mustGeometry(128, 64, 1), replacement.LRU)
			readErr := errors.New("disk on fire")
			err := s.Replay(&sliceSource{addrs: []uint64{0}, err: readErr})

			Expect(err).To(MatchError(readErr))
			Expect(s.Stats().Accesses).To(Equal(uint64(1)))
		})

		It("should call function hooks", func() {
			var seen []sim.Kind
			s := sim.New(mustGeometry(128, 64, 1), replacement.LRU,
				sim.WithHook(sim.HookFunc(func(o sim.Outcome) {
					seen = append(seen, o.Kind)
				})))

			s.ReplayAll([]uint64{0, 0})
			Expect(seen).To(Equal([]sim.Kind{sim.MissCompulsory, sim.Hit}))
		})
	})

	Describe("Kind", func() {
		It("should print the report labels", func() {
			Expect(sim.Hit.String()).To(Equal("HIT"))
			Expect(sim.MissCompulsory.String()).To(Equal("MISS (Compulsory)"))
			Expect(sim.MissConflict.String()).To(Equal("MISS (Conflict)"))
			Expect(sim.MissCapacity.String()).To(Equal("MISS (Capacity)"))
			Expect(sim.Hit.IsMiss()).To(BeFalse())
			Expect(sim.MissCapacity.IsMiss()).To(BeTrue())
		})

		It("should compute the hit rate", func() {
			Expect(sim.Statistics{}.HitRate()).To(BeZero())
			Expect(sim.Statistics{Accesses: 4, Hits: 1}.HitRate()).
				To(BeNumerically("~", 25.0))
		})
	})
})
