package flighttime_test

import (
	"errors"
	"math"
	"testing"

	"github.com/loggers/logbook/internal/domain/flighttime"
	"github.com/loggers/logbook/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// step is roughly 1.1 km of latitude, well above the movement threshold.
const step = 0.01

func TestEstimate(t *testing.T) {
	Convey("Given a default estimator", t, func() {
		e := flighttime.NewEstimator()

		Convey("When the trace has fewer than two samples", func() {
			est, err := e.Estimate([]model.Sample{{Lat: 1, Lon: 1, Time: 10}})

			Convey("Then the estimate degrades to zero", func() {
				So(errors.Is(err, flighttime.ErrEstimationDegraded), ShouldBeTrue)
				So(est.Seconds, ShouldEqual, 0)
			})
		})

		Convey("When the trace is empty", func() {
			_, err := e.Estimate(nil)

			Convey("Then the estimate is degraded", func() {
				So(errors.Is(err, flighttime.ErrEstimationDegraded), ShouldBeTrue)
			})
		})

		Convey("When the aircraft keeps moving", func() {
			trace := []model.Sample{
				{Lat: 0, Lon: 0, Time: 0},
				{Lat: step, Lon: 0, Time: 300},
				{Lat: 2 * step, Lon: 0, Time: 600},
			}
			est, err := e.Estimate(trace)

			Convey("Then the whole span is credited", func() {
				So(err, ShouldBeNil)
				So(est.Seconds, ShouldEqual, 600)
				So(est.Excluded, ShouldEqual, 0)
			})
		})

		Convey("When two identical positions are 1000s apart", func() {
			est, err := e.Estimate([]model.Sample{{Lat: 0, Lon: 0, Time: 0}, {Lat: 0, Lon: 0, Time: 1000}})

			Convey("Then only the first 900s of the stationary run are credited", func() {
				So(err, ShouldBeNil)
				So(est.Seconds, ShouldEqual, 900)
				So(est.Excluded, ShouldEqual, 100)
			})
		})

		Convey("When every sample is identical", func() {
			same := model.Sample{Lat: 43.1, Lon: 41.9, Time: 120}
			est, err := e.Estimate([]model.Sample{same, same, same})

			Convey("Then no time has elapsed and nothing is credited", func() {
				So(err, ShouldBeNil)
				So(est.Seconds, ShouldEqual, 0)
				So(est.Excluded, ShouldEqual, 0)
			})
		})

		Convey("When every sample is at the same position", func() {
			trace := []model.Sample{}
			for i := 0; i <= 20; i++ {
				trace = append(trace, model.Sample{Lat: 43.1, Lon: 41.9, Time: float64(i * 300)})
			}
			est, err := e.Estimate(trace)

			Convey("Then nothing beyond the stationary limit is credited", func() {
				So(err, ShouldBeNil)
				So(est.Seconds, ShouldEqual, flighttime.DefaultStationaryLimit)
				So(est.Seconds+est.Excluded, ShouldEqual, 6000)
			})
		})

		Convey("When the aircraft parks, then flies again", func() {
			trace := []model.Sample{
				{Lat: 0, Lon: 0, Time: 0},
				{Lat: 0, Lon: 0, Time: 600},
				{Lat: 0, Lon: 0, Time: 2000},
				{Lat: step, Lon: 0, Time: 2100},
				{Lat: 2 * step, Lon: 0, Time: 2200},
			}
			est, err := e.Estimate(trace)

			Convey("Then the over-limit tail is excluded and flying resumes being credited", func() {
				So(err, ShouldBeNil)
				So(est.Seconds, ShouldEqual, 900+200)
				So(est.Excluded, ShouldEqual, 1100)
			})
		})

		Convey("When the aircraft parks twice", func() {
			trace := []model.Sample{
				{Lat: 0, Lon: 0, Time: 0},
				{Lat: 0, Lon: 0, Time: 1000},
				{Lat: step, Lon: 0, Time: 1100},
				{Lat: step, Lon: 0, Time: 1500},
			}
			est, _ := e.Estimate(trace)

			Convey("Then each run gets its own allowance", func() {
				So(est.Seconds, ShouldEqual, 900+100+400)
			})
		})

		Convey("When samples arrive out of order", func() {
			ordered := []model.Sample{
				{Lat: 0, Lon: 0, Time: 0},
				{Lat: step, Lon: 0, Time: 100},
				{Lat: 2 * step, Lon: 0, Time: 250},
			}
			shuffled := []model.Sample{ordered[2], ordered[0], ordered[1]}
			a, _ := e.Estimate(ordered)
			b, _ := e.Estimate(shuffled)

			Convey("Then the result does not depend on input order", func() {
				So(b.Seconds, ShouldEqual, a.Seconds)
				So(b.Seconds, ShouldEqual, 250)
			})

			Convey("And the input slice is not reordered", func() {
				So(shuffled[0].Time, ShouldEqual, 250)
			})
		})

		Convey("When a sample is not finite", func() {
			_, err := e.Estimate([]model.Sample{{Time: 0}, {Lat: math.NaN(), Time: 10}})

			Convey("Then the estimate is degraded", func() {
				So(errors.Is(err, flighttime.ErrEstimationDegraded), ShouldBeTrue)
			})
		})
	})

	Convey("Given an estimator with custom thresholds", t, func() {
		e := flighttime.NewEstimator(
			flighttime.WithMovementThreshold(5000),
			flighttime.WithStationaryLimit(60),
		)

		Convey("When small moves stay under the threshold", func() {
			est, _ := e.Estimate([]model.Sample{{Time: 0}, {Lat: step, Time: 100}})

			Convey("Then they count as stationary", func() {
				So(est.Seconds, ShouldEqual, 60)
			})
		})

		Convey("When invalid options are passed", func() {
			d := flighttime.NewEstimator(flighttime.WithMovementThreshold(-1), flighttime.WithStationaryLimit(0))
			est, _ := d.Estimate([]model.Sample{{Time: 0}, {Time: 1000}})

			Convey("Then defaults are kept", func() {
				So(est.Seconds, ShouldEqual, 900)
			})
		})
	})
}
