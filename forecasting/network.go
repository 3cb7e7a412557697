package forecasting

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
)

// Regressor maps one feature row to a quantity estimate.
type Regressor interface {
	Predict(x []float64) float64
	Inputs() int
}

const (
	adamBeta1   = 0.9
	adamBeta2   = 0.999
	adamEpsilon = 1e-7
)

type dense struct {
	in, out int
	relu    bool
	w       [][]float64
	b       []float64

	gw     [][]float64
	gb     []float64
	mw, vw [][]float64
	mb, vb []float64
}

func newDense(in, out int, relu bool, rng *rand.Rand) *dense {
	limit := math.Sqrt(6 / float64(in+out))
	l := &dense{
		in: in, out: out, relu: relu,
		w:  matrix(out, in),
		b:  make([]float64, out),
		gw: matrix(out, in),
		gb: make([]float64, out),
		mw: matrix(out, in),
		vw: matrix(out, in),
		mb: make([]float64, out),
		vb: make([]float64, out),
	}
	for _, row := range l.w {
		for j := range row {
			row[j] = (rng.Float64()*2 - 1) * limit
		}
	}
	return l
}

func matrix(rows, cols int) [][]float64 {
	m := make([][]float64, rows)
	for i := range m {
		m[i] = make([]float64, cols)
	}
	return m
}

// forward returns the pre-activation and activation of the layer.
func (l *dense) forward(x []float64) (z, a []float64) {
	z = make([]float64, l.out)
	a = make([]float64, l.out)
	for o := 0; o < l.out; o++ {
		z[o] = floats.Dot(l.w[o], x) + l.b[o]
		a[o] = z[o]
		if l.relu && a[o] < 0 {
			a[o] = 0
		}
	}
	return z, a
}

func (l *dense) zeroGrad() {
	for o := range l.gw {
		clear(l.gw[o])
	}
	clear(l.gb)
}

func (l *dense) adamStep(lr float64, t int) {
	c1 := 1 - math.Pow(adamBeta1, float64(t))
	c2 := 1 - math.Pow(adamBeta2, float64(t))
	update := func(p *float64, g float64, m, v *float64) {
		*m = adamBeta1*(*m) + (1-adamBeta1)*g
		*v = adamBeta2*(*v) + (1-adamBeta2)*g*g
		*p -= lr * (*m / c1) / (math.Sqrt(*v/c2) + adamEpsilon)
	}
	for o := 0; o < l.out; o++ {
		for j := 0; j < l.in; j++ {
			update(&l.w[o][j], l.gw[o][j], &l.mw[o][j], &l.vw[o][j])
		}
		update(&l.b[o], l.gb[o], &l.mb[o], &l.vb[o])
	}
}

// Network is a fully connected feed-forward regressor with ReLU hidden layers
// and a single linear output, trained with Adam on squared error.
type Network struct {
	layers []*dense
	step   int
}

// NewNetwork builds a network with Glorot-uniform weights and zero biases.
func NewNetwork(inputs int, hidden []int, rng *rand.Rand) *Network {
	n := &Network{}
	width := inputs
	for _, h := range hidden {
		n.layers = append(n.layers, newDense(width, h, true, rng))
		width = h
	}
	n.layers = append(n.layers, newDense(width, 1, false, rng))
	return n
}

// Inputs is the feature width the network was built for.
func (n *Network) Inputs() int { return n.layers[0].in }

// Predict runs a forward pass over one scaled feature row.
func (n *Network) Predict(x []float64) float64 {
	a := x
	for _, l := range n.layers {
		_, a = l.forward(a)
	}
	return a[0]
}

// Fit runs the given number of shuffled mini-batch epochs over (X, y) and
// returns the mean squared error of the last epoch. It stops early only when
// ctx is done.
func (n *Network) Fit(ctx context.Context, X [][]float64, y []float64, cfg TrainConfig, rng *rand.Rand) (float64, error) {
	if len(X) != len(y) {
		return 0, fmt.Errorf("%d rows but %d targets: %w", len(X), len(y), ErrShapeMismatch)
	}
	for i, row := range X {
		if len(row) != n.Inputs() {
			return 0, fmt.Errorf("row %d has %d columns, network expects %d: %w", i, len(row), n.Inputs(), ErrShapeMismatch)
		}
	}
	batch := max(cfg.BatchSize, 1)
	order := make([]int, len(X))
	for i := range order {
		order[i] = i
	}

	var loss float64
	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return loss, fmt.Errorf("training stopped at epoch %d: %w", epoch, err)
		}
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
		loss = 0
		for start := 0; start < len(order); start += batch {
			end := min(start+batch, len(order))
			loss += n.trainBatch(X, y, order[start:end], cfg.LearningRate)
		}
		loss /= float64(len(order))
	}
	return loss, nil
}

// trainBatch applies one Adam update and returns the summed squared error of the batch.
func (n *Network) trainBatch(X [][]float64, y []float64, idx []int, lr float64) float64 {
	for _, l := range n.layers {
		l.zeroGrad()
	}
	var sse float64
	scale := 2 / float64(len(idx))
	for _, i := range idx {
		acts := make([][]float64, 0, len(n.layers)+1)
		zs := make([][]float64, 0, len(n.layers))
		acts = append(acts, X[i])
		for _, l := range n.layers {
			z, a := l.forward(acts[len(acts)-1])
			zs = append(zs, z)
			acts = append(acts, a)
		}
		diff := acts[len(acts)-1][0] - y[i]
		sse += diff * diff

		delta := []float64{scale * diff}
		for k := len(n.layers) - 1; k >= 0; k-- {
			l := n.layers[k]
			input := acts[k]
			for o := 0; o < l.out; o++ {
				l.gb[o] += delta[o]
				floats.AddScaled(l.gw[o], delta[o], input)
			}
			if k == 0 {
				break
			}
			prev := make([]float64, l.in)
			for o := 0; o < l.out; o++ {
				floats.AddScaled(prev, delta[o], l.w[o])
			}
			for j, z := range zs[k-1] {
				if z <= 0 {
					prev[j] = 0
				}
			}
			delta = prev
		}
	}
	n.step++
	for _, l := range n.layers {
		l.adamStep(lr, n.step)
	}
	return sse
}
