package experiment_test

import (
	"context"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/widthlab/internal/amplitude"
	"github.com/san-kum/widthlab/internal/config"
	"github.com/san-kum/widthlab/internal/experiment"
	"github.com/san-kum/widthlab/internal/integration"
	"github.com/san-kum/widthlab/internal/kinematics"
	"github.com/san-kum/widthlab/internal/params"
)

func yukawaWidth(y, M, mf float64) float64 {
	beta := math.Sqrt(1 - 4*mf*mf/(M*M))
	return y * y * M * beta * beta * beta / (8 * math.Pi)
}

var _ = Describe("Registry", func() {
	It("lists the builtin amplitudes", func() {
		r := experiment.NewRegistry()
		Expect(r.ListAmplitudes()).To(ContainElements("unit", "muon_decay", "ee_mumu", "scalar_yukawa"))
	})

	It("filters amplitudes by topology", func() {
		r := experiment.NewRegistry()
		names := r.AmplitudesFor(kinematics.Decay13)
		Expect(names).To(ContainElement("muon_decay"))
		Expect(names).NotTo(ContainElement("ee_mumu"))
		Expect(names).To(ContainElement("unit"))
	})

	It("accepts extra amplitudes", func() {
		r := experiment.NewRegistry()
		err := r.Register(amplitude.Amplitude{
			Name: "flat2", Incoming: 1, Outgoing: 2,
			Fn: func(*params.Store) complex128 { return 2 },
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(r.ListAmplitudes()).To(ContainElement("flat2"))
	})

	It("rejects unknown names", func() {
		_, err := experiment.NewRegistry().GetAmplitude("nope")
		Expect(err).To(MatchError(amplitude.ErrUnknown))
	})
})

var _ = Describe("Experiment", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Context("with a two-body decay", func() {
		var (
			cfg *config.Config
			exp *experiment.Experiment
		)

		BeforeEach(func() {
			cfg = config.GetPreset("higgs_bb")
			exp = experiment.New(cfg)
			Expect(exp.Setup()).To(Succeed())
		})

		It("computes the width exactly", func() {
			res, err := exp.Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Converged()).To(BeTrue())
			Expect(res.History).To(HaveLen(1))

			want := yukawaWidth(cfg.Params["y"], cfg.Incoming[0], cfg.Outgoing[0])
			Expect(res.Estimate.Value).To(BeNumerically("~", want, 1e-12*want))
		})

		It("follows the parent mass", func() {
			Expect(exp.Set("mass", 200)).To(Succeed())
			res, err := exp.Run(ctx)
			Expect(err).NotTo(HaveOccurred())

			want := yukawaWidth(cfg.Params["y"], 200, cfg.Outgoing[0])
			Expect(res.Estimate.Value).To(BeNumerically("~", want, 1e-12*want))
			Expect(exp.Config().Incoming[0]).To(Equal(200.0))
		})

		It("refuses a parent below threshold", func() {
			err := exp.Set("mass", 5)
			Expect(err).To(MatchError(kinematics.ErrBelowThreshold))
			Expect(exp.Kinematics().IncomingMasses()).To(Equal([]float64{cfg.Incoming[0]}))
		})

		It("updates declared parameters", func() {
			Expect(exp.Set("y", 0.1)).To(Succeed())
			res, err := exp.Run(ctx)
			Expect(err).NotTo(HaveOccurred())

			want := yukawaWidth(0.1, cfg.Incoming[0], cfg.Outgoing[0])
			Expect(res.Estimate.Value).To(BeNumerically("~", want, 1e-12*want))
		})

		It("rejects undeclared parameters", func() {
			Expect(exp.Set("g_X", 1)).To(MatchError(ContainSubstring("unknown parameter")))
		})

		It("does not touch the caller's config", func() {
			Expect(exp.Set("mass", 150)).To(Succeed())
			Expect(cfg.Incoming[0]).To(Equal(125.25))
		})

		It("describes the run for storage", func() {
			res, err := exp.Run(ctx)
			Expect(err).NotTo(HaveOccurred())

			meta := exp.Metadata(res)
			Expect(meta.Process).To(Equal("higgs_bb"))
			Expect(meta.Topology).To(Equal(kinematics.Decay12.String()))
			Expect(meta.State).To(Equal("converged"))
			Expect(meta.Value).To(Equal(res.Estimate.Value))
			Expect(meta.Params).To(HaveKey("y"))
			Expect(meta.Params).NotTo(HaveKey("s_23"))
		})
	})

	Context("with a three-body decay", func() {
		It("reproduces the muon width", func() {
			cfg := config.GetPreset("muon_decay")
			cfg.Integration.Seed = 11

			var passes int
			exp := experiment.New(cfg, experiment.WithObserver(integration.ObserverFunc(func(integration.Iteration) {
				passes++
			})))
			Expect(exp.Setup()).To(Succeed())

			res, err := exp.Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(passes).To(Equal(len(res.History)))

			gf, m := amplitude.FermiConstant, config.MuonMass
			want := gf * gf * math.Pow(m, 5) / (192 * math.Pow(math.Pi, 3))
			Expect(res.Estimate.Value).To(BeNumerically("~", want, 0.02*want))
		})
	})

	Context("before setup", func() {
		It("refuses to run", func() {
			_, err := experiment.New(config.DefaultConfig()).Run(ctx)
			Expect(err).To(MatchError(experiment.ErrNotSetup))
		})
	})

	Context("with an invalid configuration", func() {
		It("fails setup on an unknown amplitude", func() {
			cfg := config.DefaultConfig()
			cfg.Amplitude = "nope"
			Expect(experiment.New(cfg).Setup()).To(MatchError(amplitude.ErrUnknown))
		})

		It("fails setup on a topology mismatch", func() {
			cfg := config.GetPreset("ee_mumu")
			cfg.Amplitude = "muon_decay"
			Expect(experiment.New(cfg).Setup()).NotTo(Succeed())
		})

		It("fails setup below threshold", func() {
			cfg := config.DefaultConfig()
			cfg.Outgoing = []float64{1, 1}
			Expect(experiment.New(cfg).Setup()).To(MatchError(kinematics.ErrBelowThreshold))
		})
	})

	Context("with a canceled context", func() {
		It("stops before the first pass", func() {
			exp := experiment.New(config.GetPreset("dalitz_demo"))
			Expect(exp.Setup()).To(Succeed())

			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := exp.Run(cctx)
			Expect(err).To(MatchError(context.Canceled))
		})
	})
})
