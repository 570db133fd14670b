package workload

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConstantEmitsFixedSizesAndDecrements(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	c := NewConstant(2.0, 3.0, 2)

	require.True(t, c.Remaining())
	proc, comm := c.Next(rng)
	require.Equal(t, 2.0, proc)
	require.Equal(t, 3.0, comm)

	require.True(t, c.Remaining())
	c.Next(rng)
	require.False(t, c.Remaining())
}

func TestConstantClassIndependentFromOriginal(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	c := NewConstant(1, 1, 1)
	clone := c.Clone()
	c.Next(rng)
	require.False(t, c.Remaining())
	require.True(t, clone.Remaining(), "clone must not observe mutations to the original")
}

func TestUniformRandomWithinBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	u := NewUniformRandom(1, 2, 10, 20, 50)
	for i := 0; i < 50; i++ {
		require.True(t, u.Remaining())
		proc, comm := u.Next(rng)
		require.GreaterOrEqual(t, proc, 1.0)
		require.LessOrEqual(t, proc, 2.0)
		require.GreaterOrEqual(t, comm, 10.0)
		require.LessOrEqual(t, comm, 20.0)
	}
	require.False(t, u.Remaining())
}

func TestGaussianSizesClampedToMin(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	g := NewGaussianSizes(0, 1, 0, 1, 0.5, 1000)
	for i := 0; i < 1000; i++ {
		proc, comm := g.Next(rng)
		require.GreaterOrEqual(t, proc, 0.5)
		require.GreaterOrEqual(t, comm, 0.5)
	}
}

func TestClosedLoopWorkloadsLeaveArrivalTimeUnchanged(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	require.Equal(t, 5.0, NewConstant(1, 1, 1).SetArrivalTime(rng, 5.0))
	require.Equal(t, 5.0, NewUniformRandom(1, 2, 1, 2, 1).SetArrivalTime(rng, 5.0))
}

func TestPoissonArrivalAdvancesStrictlyForward(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	p := NewPoissonArrival(NewConstant(1, 1, 100), 2.0)
	t0 := 0.0
	for i := 0; i < 20; i++ {
		t1 := p.SetArrivalTime(rng, t0)
		require.Greater(t, t1, t0)
		t0 = t1
	}
}

func TestFixedInterarrivalAdvancesByInterval(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	f := NewFixedInterarrival(NewConstant(1, 1, 100), 0.25)
	require.Equal(t, 5.25, f.SetArrivalTime(rng, 5.0))
	require.Equal(t, 5.5, f.SetArrivalTime(rng, 5.25))
}

func TestPoissonArrivalCloneIsIndependent(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	p := NewPoissonArrival(NewConstant(1, 1, 2), 1.0)
	clone := p.Clone()
	p.Next(rng)
	p.Next(rng)
	require.False(t, p.Remaining())
	require.True(t, clone.Remaining())
}
