package design_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/tvcsim/internal/design"
	"github.com/san-kum/tvcsim/internal/elements"
	"github.com/san-kum/tvcsim/internal/spatial"
)

var _ = Describe("Design lifecycle", func() {
	var (
		factory *elements.Factory
		d       *design.Design
		body    *elements.Element
		nose    *elements.Element
		motor   *elements.Element
	)

	BeforeEach(func() {
		factory = elements.NewFactory()
		var err error
		body, err = factory.New(elements.Spec{
			Name:  "body",
			Shape: elements.Tube{InnerRadius: 0.036, OuterRadius: 0.037, Height: 0.8},
			Mass:  0.3,
		})
		Expect(err).NotTo(HaveOccurred())
		nose, err = factory.New(elements.Spec{
			Name:  "nose",
			Shape: elements.Cone{Radius: 0.037, Height: 0.2},
			Mass:  0.12,
		})
		Expect(err).NotTo(HaveOccurred())
		motor, err = factory.New(elements.Spec{
			Name:         "motor",
			Shape:        elements.Cylinder{Radius: 0.012, Height: 0.07},
			Mass:         0.13,
			Dynamic:      true,
			FloorMass:    0.084,
			BurnDuration: 3.5,
		})
		Expect(err).NotTo(HaveOccurred())

		d, err = design.New(body, nose, motor)
		Expect(err).NotTo(HaveOccurred())
	})

	Context("while open", func() {
		It("accepts placement of static and dynamic elements", func() {
			Expect(d.Place(nose.ID(), design.Translate(spatial.Vec(0, 0, 0.4)))).To(Succeed())
			Expect(d.Place(motor.ID(), design.Translate(spatial.Vec(0, 0, -0.4)))).To(Succeed())

			p, err := d.Placement(nose.ID())
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Offset).To(Equal(spatial.Vec(0, 0, 0.4)))
		})

		It("accumulates translations and replaces attitudes", func() {
			q := spatial.FromAxisAngle(spatial.UnitX, 0.3)
			Expect(d.Place(nose.ID(), design.Translate(spatial.Vec(0, 0, 0.1)), design.Orient(q))).To(Succeed())
			Expect(d.Place(nose.ID(), design.Translate(spatial.Vec(0, 0.2, 0.1)), design.Orient(spatial.Identity()))).To(Succeed())

			p, err := d.Placement(nose.ID())
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Offset.Y).To(BeNumerically("~", 0.2, 1e-12))
			Expect(p.Offset.Z).To(BeNumerically("~", 0.2, 1e-12))
			Expect(p.Attitude).To(Equal(spatial.Identity()))
		})

		It("reports unknown ids as not found", func() {
			err := d.Place(elements.ID(999), design.Translate(spatial.UnitZ))
			Expect(err).To(MatchError(design.ErrNotFound))
		})

		It("rejects duplicate elements", func() {
			Expect(d.Add(body)).To(MatchError(design.ErrIllegalState))
		})

		It("does not lock when queried for static state", func() {
			_, ok := d.StaticAggregate()
			Expect(ok).To(BeFalse())
			Expect(d.Locked()).To(BeFalse())
		})
	})

	Context("after locking", func() {
		BeforeEach(func() {
			Expect(d.Place(nose.ID(), design.Translate(spatial.Vec(0, 0, 0.4)))).To(Succeed())
			Expect(d.LockStatics()).To(Succeed())
		})

		It("rejects placement of static ids", func() {
			err := d.Place(body.ID(), design.Translate(spatial.UnitX))
			Expect(err).To(MatchError(design.ErrIllegalState))
			err = d.Place(nose.ID(), design.Orient(spatial.FromAxisAngle(spatial.UnitY, 0.1)))
			Expect(err).To(MatchError(design.ErrIllegalState))
		})

		It("still accepts placement of dynamic ids", func() {
			Expect(d.Place(motor.ID(), design.Translate(spatial.Vec(0, 0, -0.4)))).To(Succeed())
		})

		It("cannot be locked twice", func() {
			Expect(d.LockStatics()).To(MatchError(design.ErrIllegalState))
			Expect(d.Locked()).To(BeTrue())
		})

		It("rejects new static elements", func() {
			extra, err := factory.New(elements.Spec{Name: "fin", Shape: elements.Cylinder{Radius: 0.01, Height: 0.05}, Mass: 0.01})
			Expect(err).NotTo(HaveOccurred())
			Expect(d.Add(extra)).To(MatchError(design.ErrIllegalState))
		})

		It("cannot remove a folded static element", func() {
			Expect(d.Remove(body.ID())).To(MatchError(design.ErrIllegalState))
		})

		It("caches the static aggregate", func() {
			agg, ok := d.StaticAggregate()
			Expect(ok).To(BeTrue())
			Expect(agg.Mass).To(BeNumerically("~", 0.42, 1e-12))
			Expect(agg.CG.Z).To(BeNumerically("~", 0.12*0.4/0.42, 1e-12))
		})

		It("keeps listing folded parts", func() {
			parts := d.Parts()
			Expect(parts).To(HaveLen(3))
			Expect(parts[0].Name).To(Equal("body"))
			Expect(parts[0].Locked).To(BeTrue())
			Expect(parts[2].Dynamic).To(BeTrue())
		})
	})

	Context("temporary properties", func() {
		It("locks lazily", func() {
			_, err := d.TemporaryProperties()
			Expect(err).NotTo(HaveOccurred())
			Expect(d.Locked()).To(BeTrue())
		})

		It("tracks dynamic depletion", func() {
			before, err := d.TemporaryProperties()
			Expect(err).NotTo(HaveOccurred())
			d.Step(1.0)
			after, err := d.TemporaryProperties()
			Expect(err).NotTo(HaveOccurred())
			Expect(after.Mass).To(BeNumerically("<", before.Mass))
			Expect(before.Mass - after.Mass).To(BeNumerically("~", motor.Rate(), 1e-12))
		})

		It("fails on a massless design", func() {
			empty, err := design.New()
			Expect(err).NotTo(HaveOccurred())
			_, err = empty.TemporaryProperties()
			Expect(err).To(MatchError(design.ErrZeroMass))
		})
	})
})
