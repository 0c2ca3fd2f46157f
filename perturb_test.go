package qpersist

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestPerturb(t *testing.T) {
	Convey("Given a structured circuit", t, func() {
		cfg := NewConfig()
		p, _ := cfg.Partition()
		circuit, err := Structured(cfg, 21)
		So(err, ShouldBeNil)

		before := dump.Sdump(circuit.Gates())

		Convey("Perturbing should leave the input untouched", func() {
			perturbed, err := Perturb(circuit, cfg, 21)
			So(err, ShouldBeNil)
			So(dump.Sdump(circuit.Gates()), ShouldEqual, before)

			chain := len(intraChain(p))
			added := cfg.ReversalLayers()*(chain+1) + 1 + 3*cfg.Qubits
			So(perturbed.Len(), ShouldEqual, circuit.Len()+added)
			So(perturbed.Seed(), ShouldEqual, circuit.Seed())
		})

		Convey("The noise should depend on the seed", func() {
			a, _ := Perturb(circuit, cfg, 1)
			b, _ := Perturb(circuit, cfg, 1)
			c, _ := Perturb(circuit, cfg, 2)
			So(dump.Sdump(a.Gates()), ShouldEqual, dump.Sdump(b.Gates()))
			So(dump.Sdump(a.Gates()), ShouldNotEqual, dump.Sdump(c.Gates()))
		})

		Convey("Perturbation should never cross the partition", func() {
			perturbed, _ := Perturb(circuit, cfg, 21)
			tail := perturbed.Gates()[circuit.Len():]
			for _, g := range tail {
				So(p.Crosses(g), ShouldBeFalse)
			}

			pre := mustSimulate(circuit, nil)
			post := mustSimulate(perturbed, nil)
			before, _ := Correlate(pre, p)
			after, _ := Correlate(post, p)
			So(after.MutualInformation, ShouldAlmostEqual, before.MutualInformation, entropyTolerance)

			f := Fidelity(pre, post)
			So(f, ShouldBeBetweenOrEqual, 0, 1)
			So(f, ShouldBeLessThan, 1)
		})

		Convey("Without noise an even number of reversal layers should restore the state", func() {
			quiet := cfg.Clone()
			quiet.PerturbationSigma = 0
			quiet.ReversalFraction = 0.17
			So(quiet.ReversalLayers(), ShouldEqual, 2)

			perturbed, err := Perturb(circuit, quiet, 21)
			So(err, ShouldBeNil)

			pre := mustSimulate(circuit, nil)
			post := mustSimulate(perturbed, nil)
			So(Fidelity(pre, post), ShouldAlmostEqual, 1, tolerance)
		})
	})

	Convey("Given the default reversal fraction", t, func() {
		cfg := NewConfig()

		Convey("It should re-apply three layers", func() {
			So(cfg.ReversalLayers(), ShouldEqual, 3)
		})
	})
}

func TestRunTrial(t *testing.T) {
	Convey("Given the default configuration", t, func() {
		cfg := NewConfig()

		Convey("A structured trial should keep all of its correlation", func() {
			trial, err := RunTrial(FamilyStructured, cfg, 42)
			So(err, ShouldBeNil)
			So(trial.Family, ShouldEqual, FamilyStructured)
			So(trial.Seed, ShouldEqual, int64(42))
			So(trial.MIPre, ShouldAlmostEqual, 8, entropyTolerance)
			So(trial.MIPost, ShouldAlmostEqual, 8, entropyTolerance)
			So(trial.Retention, ShouldAlmostEqual, 1, entropyTolerance)
			So(trial.Fidelity, ShouldBeBetweenOrEqual, 0, 1)
		})

		Convey("The same seed should reproduce the same trial", func() {
			a, _ := RunTrial(FamilyRandomized, cfg, 10042)
			b, _ := RunTrial(FamilyRandomized, cfg, 10042)
			So(a, ShouldResemble, b)
		})

		Convey("A self-referential trial should sample identical outcomes before and after", func() {
			trial, err := RunTrial(FamilySelfReferential, cfg, 20042)
			So(err, ShouldBeNil)
			So(trial.MIPre, ShouldAlmostEqual, 4, entropyTolerance)
			So(trial.MIPost, ShouldAlmostEqual, trial.MIPre, entropyTolerance)
		})

		Convey("Retention should be 0 when there was nothing to retain", func() {
			So(retention(0, 3), ShouldEqual, 0.0)
			So(retention(RetentionFloor/2, 1), ShouldEqual, 0.0)
			So(retention(4, 2), ShouldEqual, 0.5)
		})
	})
}
