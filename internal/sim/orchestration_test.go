package sim_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap/zaptest"

	"github.com/san-kum/particlesim/internal/dynamo"
	"github.com/san-kum/particlesim/internal/sim"
)

var _ = Describe("ParticleSystem", func() {
	var cfg sim.Config

	BeforeEach(func() {
		cfg = sim.DefaultConfig()
	})

	build := func() *sim.ParticleSystem {
		s, err := sim.New(cfg, sim.WithLogger(zaptest.NewLogger(GinkgoT())), sim.WithCapacity(64))
		Expect(err).NotTo(HaveOccurred())
		return s
	}

	Context("with point attraction", func() {
		BeforeEach(func() {
			cfg.AttractionFactor = 50
			cfg.AttractionPoint = dynamo.V(400, 300)
			cfg.Drag = 0.99
		})

		It("pulls a lone particle toward the attraction point", func() {
			s := build()
			h, err := s.AddParticle(dynamo.V(200, 300), 5)
			Expect(err).NotTo(HaveOccurred())

			for i := 0; i < 10; i++ {
				s.Update()
			}

			p, err := s.Particle(h)
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Position.Sub(cfg.AttractionPoint).Length()).To(BeNumerically("<", 200))
			Expect(p.Position.Y).To(BeNumerically("~", 300, 1e-3))
		})

		It("keeps a packed cluster finite and counts contacts", func() {
			s := build()
			for y := 0; y < 6; y++ {
				for x := 0; x < 6; x++ {
					_, err := s.AddParticle(dynamo.V(370+float32(x)*8, 270+float32(y)*8), 5)
					Expect(err).NotTo(HaveOccurred())
				}
			}

			totalContacts := 0
			for i := 0; i < 60; i++ {
				s.Update()
				totalContacts += s.Stats().Contacts
			}

			Expect(s.CheckFinite()).To(Succeed())
			Expect(totalContacts).To(BeNumerically(">", 0))
			Expect(s.Len()).To(Equal(36))
		})
	})

	Context("with gravity in a box", func() {
		BeforeEach(func() {
			cfg.Gravity = dynamo.V(0, 1000)
			cfg.Drag = 0.995
		})

		It("settles particles on the floor inside the walls", func() {
			s := build()
			for i := 0; i < 20; i++ {
				_, err := s.AddParticle(dynamo.V(100+float32(i)*30, 100), 5)
				Expect(err).NotTo(HaveOccurred())
			}

			for i := 0; i < 240; i++ {
				s.Update()
			}

			floor := cfg.WorldHeight - cfg.Buffer
			for _, p := range s.Particles() {
				Expect(p.Position.Y).To(BeNumerically("~", floor-p.Radius, 0.5))
				Expect(p.Position.X).To(BeNumerically(">=", cfg.Buffer+p.Radius-0.5))
			}
		})

		It("bounces when walls carry restitution", func() {
			cfg.Restitution = 0.8
			cfg.Drag = 1
			s := build()
			h, _ := s.AddParticle(dynamo.V(400, 500), 5)
			Expect(s.SetParticleVelocity(h, dynamo.V(0, 600))).To(Succeed())

			minY := float32(1e9)
			for i := 0; i < 30; i++ {
				s.Update()
				p, _ := s.Particle(h)
				if p.Position.Y < minY {
					minY = p.Position.Y
				}
			}
			p, _ := s.Particle(h)
			Expect(p.Velocity(s.StepDt()).Y).NotTo(BeNumerically("~", 0, 1))
			Expect(minY).To(BeNumerically("<", 500))
		})
	})

	Context("with a circular boundary", func() {
		BeforeEach(func() {
			cfg.Boundary = sim.BoundaryCircle
			cfg.CircleCenter = dynamo.V(400, 300)
			cfg.CircleRadius = 200
			cfg.Gravity = dynamo.V(0, 800)
			cfg.Drag = 0.99
		})

		It("keeps particles within the disk", func() {
			s := build()
			for i := 0; i < 10; i++ {
				_, err := s.AddParticle(dynamo.V(300+float32(i)*20, 250), 6)
				Expect(err).NotTo(HaveOccurred())
			}

			for i := 0; i < 180; i++ {
				s.Update()
			}

			for _, p := range s.Particles() {
				Expect(p.Position.Sub(cfg.CircleCenter).Length()).To(BeNumerically("<=", cfg.CircleRadius-p.Radius+0.5))
			}
		})
	})

	Context("driven by a simulator", func() {
		It("stops on cancellation and reports partial progress", func() {
			s := build()
			_, _ = s.AddParticle(dynamo.V(400, 300), 5)
			runner := sim.NewSimulator(s)

			ctx, cancel := context.WithCancel(context.Background())
			frames := 0
			err := runner.RunWithCallback(ctx, func(*sim.ParticleSystem) bool {
				frames++
				if frames == 3 {
					cancel()
				}
				return true
			})

			Expect(err).To(MatchError(dynamo.ErrContextCanceled))
			Expect(frames).To(Equal(3))
			Expect(s.Frame()).To(Equal(3))
		})
	})
})
