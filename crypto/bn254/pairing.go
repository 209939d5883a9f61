package bn254

import "math/big"

// Optimal Ate pairing over the D-type sextic twist, which maps (x', y') on
// E'(F_p2) to (x' w^2, y' w^3) on E(F_p12). Line evaluations are sparse
// elements c + (a v + b v^2) w.

// u is the BN parameter; the loop runs over 6u+2.
var u = bigFromStr("4965661367192848881")

// sixUPlus2NAF is 6u+2 in non-adjacent form, least significant digit first.
var sixUPlus2NAF = []int8{0, 0, 0, 1, 0, 1, 0, -1, 0, 0, 1, -1, 0, 0, 1, 0,
	0, 1, 1, 0, -1, 0, 0, 1, 0, -1, 0, 0, 0, 0, 1, 1,
	1, 0, 0, -1, 0, 0, 1, 0, 0, 0, 0, 0, -1, 0, 0, 1,
	1, 0, 0, -1, 0, 0, 0, 1, 1, 0, -1, 0, 0, 1, 0, 1, 1}

// twistPoint is the Miller loop accumulator; t caches z^2.
type twistPoint struct {
	x, y, z, t *gfP2
}

// lineDouble returns the tangent line at r evaluated at P and 2r.
func lineDouble(r *twistPoint, px, py *big.Int) (a, b, c *gfP2, out *twistPoint) {
	A := r.x.sqr()
	B := r.y.sqr()
	C := B.sqr()
	D := r.x.add(B).sqr().sub(A).sub(C)
	D = D.add(D)
	E := A.add(A).add(A)
	G := E.sqr()

	out = &twistPoint{}
	out.x = G.sub(D).sub(D)
	out.z = r.y.add(r.z).sqr().sub(B).sub(r.t)
	c8 := C.add(C)
	c8 = c8.add(c8)
	c8 = c8.add(c8)
	out.y = D.sub(out.x).mul(E).sub(c8)
	out.t = out.z.sqr()

	t := E.mul(r.t)
	b = t.add(t).neg().mulScalar(px)

	b4 := B.add(B)
	b4 = b4.add(b4)
	a = r.x.add(E).sqr().sub(A).sub(G).sub(b4)

	c = out.z.mul(r.t)
	c = c.add(c).mulScalar(py)
	return a, b, c, out
}

// lineAdd returns the line through r and the affine twist point (qx, qy)
// evaluated at P, and r+Q. r2 must be qy^2.
func lineAdd(r *twistPoint, qx, qy *gfP2, px, py *big.Int, r2 *gfP2) (a, b, c *gfP2, out *twistPoint) {
	B := qx.mul(r.t)
	D := qy.add(r.z).sqr().sub(r2).sub(r.t).mul(r.t)
	H := B.sub(r.x)
	I := H.sqr()
	E := I.add(I)
	E = E.add(E)
	J := H.mul(E)
	L1 := D.sub(r.y).sub(r.y)
	V := r.x.mul(E)

	out = &twistPoint{}
	out.x = L1.sqr().sub(J).sub(V.add(V))
	out.z = r.z.add(H).sqr().sub(r.t).sub(I)
	yj := r.y.mul(J)
	out.y = V.sub(out.x).mul(L1).sub(yj.add(yj))
	out.t = out.z.sqr()

	t := qy.add(out.z).sqr().sub(r2).sub(out.t)
	lx := L1.mul(qx)
	a = lx.add(lx).sub(t)

	c = out.z.mulScalar(py)
	c = c.add(c)

	b = L1.neg().mulScalar(px)
	b = b.add(b)
	return a, b, c, out
}

// mulLine multiplies ret by c + (b + a v) w using one Karatsuba step.
func mulLine(ret *gfP12, a, b, c *gfP2) *gfP12 {
	line := &gfP6{b, a, gfP2Zero()}
	a2 := line.mul(ret.c1)
	t3 := ret.c0.scale(c)
	sum := &gfP6{b.add(c), a, gfP2Zero()}

	return &gfP12{
		c0: a2.mulV().add(t3),
		c1: ret.c1.add(ret.c0).mul(sum).sub(a2).sub(t3),
	}
}

func millerLoop(px, py *big.Int, qx, qy *gfP2) *gfP12 {
	ret := gfP12One()
	r := &twistPoint{x: qx.clone(), y: qy.clone(), z: gfP2One(), t: gfP2One()}
	minusQy := qy.neg()
	r2 := qy.sqr()

	for i := len(sixUPlus2NAF) - 1; i > 0; i-- {
		a, b, c, next := lineDouble(r, px, py)
		if i != len(sixUPlus2NAF)-1 {
			ret = ret.sqr()
		}
		ret = mulLine(ret, a, b, c)
		r = next

		switch sixUPlus2NAF[i-1] {
		case 1:
			a, b, c, r = lineAdd(r, qx, qy, px, py, r2)
			ret = mulLine(ret, a, b, c)
		case -1:
			a, b, c, r = lineAdd(r, qx, minusQy, px, py, r2)
			ret = mulLine(ret, a, b, c)
		}
	}

	// Q1 = pi(Q), then -Q2 = -pi^2(Q) whose y coordinate equals Q's.
	q1x, q1y := twistFrobenius(qx, qy)
	a, b, c, next := lineAdd(r, q1x, q1y, px, py, q1y.sqr())
	ret = mulLine(ret, a, b, c)
	r = next

	q2x := qx.mulScalar(xiToPSqMinus1Over3)
	q2y := qy.clone()
	a, b, c, _ = lineAdd(r, q2x, q2y, px, py, q2y.sqr())
	return mulLine(ret, a, b, c)
}

// finalExp raises f to (p^12-1)/n.
func finalExp(f *gfP12) *gfP12 {
	t := f.conj().mul(f.inv()) // f^(p^6-1)
	t = t.frobenius(2).mul(t)  // ^(p^2+1)
	return finalExpHard(t)
}

// finalExpHard is the (p^4-p^2+1)/n part, using the u addition chain.
func finalExpHard(f *gfP12) *gfP12 {
	fu := f.exp(u)
	fu2 := fu.exp(u)
	fu3 := fu2.exp(u)

	y0 := f.frobenius(1).mul(f.frobenius(2)).mul(f.frobenius(3))
	y1 := f.conj()
	y2 := fu2.frobenius(2)
	y3 := fu.frobenius(1).conj()
	y4 := fu.conj().mul(fu2.frobenius(1).conj())
	y5 := fu2.conj()
	y6 := fu3.mul(fu3.frobenius(1)).conj()

	t0 := y6.sqr().mul(y4).mul(y5)
	t1 := y3.mul(y5).mul(t0)
	t0 = t0.mul(y2)
	t1 = t1.sqr().mul(t0).sqr()
	t0 = t1.mul(y1)
	t1 = t1.mul(y0)
	return t0.sqr().mul(t1)
}

// pairingProductIsOne multiplies the Miller loops of every pair and applies
// a single final exponentiation. Pairs with an infinity member contribute 1.
func pairingProductIsOne(g1 []*g1Jac, g2 []*g2Jac) bool {
	f := gfP12One()
	for i := range g1 {
		if g1[i].isInfinity() || g2[i].isInfinity() {
			continue
		}
		px, py := g1[i].affine()
		qx, qy := g2[i].affine()
		f = f.mul(millerLoop(px, py, qx, qy))
	}
	return finalExp(f).isOne()
}

// pair computes e(P, Q).
func pair(p *g1Jac, q *g2Jac) *gfP12 {
	if p.isInfinity() || q.isInfinity() {
		return gfP12One()
	}
	px, py := p.affine()
	qx, qy := q.affine()
	return finalExp(millerLoop(px, py, qx, qy))
}
