package geometry_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cachesim/geometry"
)

var _ = Describe("Geometry", func() {
	Describe("New", func() {
		It("should derive bit widths for the default cache", func() {
			g, err := geometry.New(geometry.DefaultParams())
			Expect(err).NotTo(HaveOccurred())

			// 32KB / (64B * 4) = 128 sets
			Expect(g.NumSets()).To(Equal(128))
			Expect(g.OffsetBits()).To(Equal(6))
			Expect(g.IndexBits()).To(Equal(7))
			Expect(g.TagBits()).To(Equal(19))
			Expect(g.TotalBlocks()).To(Equal(512))
		})

		It("should use zero index bits for a single set", func() {
			g, err := geometry.New(geometry.Params{
				CacheSize:     256,
				BlockSize:     64,
				Associativity: 4,
				AddressBits:   32,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(g.NumSets()).To(Equal(1))
			Expect(g.IndexBits()).To(Equal(0))
			Expect(g.TagBits()).To(Equal(26))
		})

		DescribeTable("should reject malformed geometry",
			func(p geometry.Params, field string) {
				_, err := geometry.New(p)
				Expect(err).To(HaveOccurred())

				var cfgErr *geometry.ConfigError
				Expect(err).To(BeAssignableToTypeOf(cfgErr))
				Expect(err.(*geometry.ConfigError).Field).To(Equal(field))
			},
			Entry("zero block size",
				geometry.Params{CacheSize: 1024, BlockSize: 0, Associativity: 1, AddressBits: 32},
				"block_size"),
			Entry("non power of two block size",
				geometry.Params{CacheSize: 960, BlockSize: 48, Associativity: 1, AddressBits: 32},
				"block_size"),
			Entry("zero associativity",
				geometry.Params{CacheSize: 1024, BlockSize: 64, Associativity: 0, AddressBits: 32},
				"associativity"),
			Entry("cache size not divisible",
				geometry.Params{CacheSize: 1000, BlockSize: 64, Associativity: 2, AddressBits: 32},
				"cache_size"),
			Entry("non power of two set count",
				geometry.Params{CacheSize: 3 * 64 * 2, BlockSize: 64, Associativity: 2, AddressBits: 32},
				"cache_size"),
			Entry("zero cache size",
				geometry.Params{CacheSize: 0, BlockSize: 64, Associativity: 1, AddressBits: 32},
				"cache_size"),
			Entry("set size wrapping to zero",
				geometry.Params{CacheSize: 4096, BlockSize: 1 << 32, Associativity: 1 << 32, AddressBits: 64},
				"cache_size"),
			Entry("set size wrapping to a small value",
				geometry.Params{CacheSize: 1 << 40, BlockSize: 1 << 40, Associativity: 1<<24 + 1, AddressBits: 64},
				"cache_size"),
			Entry("more blocks than can be indexed",
				geometry.Params{CacheSize: 1 << 40, BlockSize: 1, Associativity: 1, AddressBits: 64},
				"cache_size"),
			Entry("address too narrow",
				geometry.Params{CacheSize: 1024, BlockSize: 64, Associativity: 1, AddressBits: 8},
				"address_bits"),
			Entry("address too wide",
				geometry.Params{CacheSize: 1024, BlockSize: 64, Associativity: 1, AddressBits: 65},
				"address_bits"),
		)
	})

	Describe("Decompose", func() {
		var g geometry.Geometry

		BeforeEach(func() {
			var err error
			// 4KB, 4-way, 64B lines = 16 sets
			g, err = geometry.New(geometry.Params{
				CacheSize:     4 * 1024,
				BlockSize:     64,
				Associativity: 4,
				AddressBits:   32,
			})
			Expect(err).NotTo(HaveOccurred())
		})

		It("should split an address into block, set, and tag", func() {
			a := g.Decompose(0x12345)
			Expect(a.BlockID).To(Equal(uint64(0x12345 >> 6)))
			Expect(a.Index).To(Equal(int((0x12345 >> 6) & 0xF)))
			Expect(a.Tag).To(Equal(uint64(0x12345 >> 10)))
		})

		It("should map addresses in the same line to the same block", func() {
			Expect(g.Decompose(0x1000)).To(Equal(g.Decompose(0x103F)))
			Expect(g.Decompose(0x1000)).NotTo(Equal(g.Decompose(0x1040)))
		})

		It("should alias addresses one cache size apart into the same set", func() {
			a := g.Decompose(0x0000)
			b := g.Decompose(0x0400)
			Expect(a.Index).To(Equal(b.Index))
			Expect(a.Tag).NotTo(Equal(b.Tag))
		})

		It("should mask addresses wider than the address width", func() {
			Expect(g.Decompose(0x1_0000_1040)).To(Equal(g.Decompose(0x1040)))
		})

		It("should keep all 64 bits when the width is 64", func() {
			wide, err := geometry.New(geometry.Params{
				CacheSize:     4 * 1024,
				BlockSize:     64,
				Associativity: 4,
				AddressBits:   64,
			})
			Expect(err).NotTo(HaveOccurred())
			a := wide.Decompose(^uint64(0))
			Expect(a.BlockID).To(Equal(^uint64(0) >> 6))
			Expect(a.Index).To(Equal(15))
		})

		It("should return the block-aligned address", func() {
			a := g.Decompose(0x1234)
			Expect(g.BlockAddress(a.BlockID)).To(Equal(uint64(0x1200)))
		})
	})

	Describe("Presets", func() {
		It("should build every preset", func() {
			for _, name := range geometry.PresetNames() {
				p, err := geometry.Preset(name)
				Expect(err).NotTo(HaveOccurred())

				_, err = geometry.New(p)
				Expect(err).NotTo(HaveOccurred(), name)
			}
		})

		It("should describe the M2 L1D cache", func() {
			p, err := geometry.Preset("m2-l1d")
			Expect(err).NotTo(HaveOccurred())
			Expect(p.CacheSize).To(Equal(uint64(128 * 1024)))
			Expect(p.Associativity).To(Equal(8))
			Expect(p.BlockSize).To(Equal(uint64(64)))
		})

		It("should reject unknown presets", func() {
			_, err := geometry.Preset("m1-l3")
			Expect(err).To(HaveOccurred())
		})
	})
})
