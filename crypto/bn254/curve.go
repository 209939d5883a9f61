package bn254

import "math/big"

// g1Jac is a point on y^2 = x^3 + 3 over F_p in Jacobian coordinates; the
// affine point is (x/z^2, y/z^3) and z = 0 marks infinity.
type g1Jac struct {
	x, y, z *big.Int
}

func g1Infinity() *g1Jac {
	return &g1Jac{x: big.NewInt(1), y: big.NewInt(1), z: new(big.Int)}
}

func g1Generator() *g1Jac {
	return &g1Jac{x: big.NewInt(1), y: big.NewInt(2), z: big.NewInt(1)}
}

// g1FromAffine treats (0,0) as infinity.
func g1FromAffine(x, y *big.Int) *g1Jac {
	if x.Sign() == 0 && y.Sign() == 0 {
		return g1Infinity()
	}
	return &g1Jac{x: new(big.Int).Set(x), y: new(big.Int).Set(y), z: big.NewInt(1)}
}

func (p *g1Jac) isInfinity() bool { return p.z.Sign() == 0 }

func (p *g1Jac) affine() (x, y *big.Int) {
	if p.isInfinity() {
		return new(big.Int), new(big.Int)
	}
	zi := fpInv(p.z)
	zi2 := fpSqr(zi)
	return fpMul(p.x, zi2), fpMul(p.y, fpMul(zi2, zi))
}

// g1OnCurve checks range and the curve equation; (0,0) is accepted as the
// encoding of infinity.
func g1OnCurve(x, y *big.Int) bool {
	if x.Sign() == 0 && y.Sign() == 0 {
		return true
	}
	if x.Cmp(P) >= 0 || y.Cmp(P) >= 0 {
		return false
	}
	return fpSqr(y).Cmp(fpAdd(fpMul(fpSqr(x), x), curveB)) == 0
}

func (p *g1Jac) add(q *g1Jac) *g1Jac {
	if p.isInfinity() {
		return &g1Jac{new(big.Int).Set(q.x), new(big.Int).Set(q.y), new(big.Int).Set(q.z)}
	}
	if q.isInfinity() {
		return &g1Jac{new(big.Int).Set(p.x), new(big.Int).Set(p.y), new(big.Int).Set(p.z)}
	}
	z1z1 := fpSqr(p.z)
	z2z2 := fpSqr(q.z)
	u1 := fpMul(p.x, z2z2)
	u2 := fpMul(q.x, z1z1)
	s1 := fpMul(p.y, fpMul(q.z, z2z2))
	s2 := fpMul(q.y, fpMul(p.z, z1z1))
	if u1.Cmp(u2) == 0 {
		if s1.Cmp(s2) == 0 {
			return p.double()
		}
		return g1Infinity()
	}
	h := fpSub(u2, u1)
	i := fpSqr(fpAdd(h, h))
	j := fpMul(h, i)
	r := fpSub(s2, s1)
	r = fpAdd(r, r)
	v := fpMul(u1, i)

	x3 := fpSub(fpSub(fpSqr(r), j), fpAdd(v, v))
	s1j := fpMul(s1, j)
	y3 := fpSub(fpMul(r, fpSub(v, x3)), fpAdd(s1j, s1j))
	z3 := fpMul(fpSub(fpSub(fpSqr(fpAdd(p.z, q.z)), z1z1), z2z2), h)
	return &g1Jac{x3, y3, z3}
}

// double uses the a = 0 doubling formulas.
func (p *g1Jac) double() *g1Jac {
	if p.isInfinity() {
		return g1Infinity()
	}
	a := fpSqr(p.x)
	b := fpSqr(p.y)
	c := fpSqr(b)
	d := fpSub(fpSub(fpSqr(fpAdd(p.x, b)), a), c)
	d = fpAdd(d, d)
	e := fpAdd(fpAdd(a, a), a)

	x3 := fpSub(fpSqr(e), fpAdd(d, d))
	eightC := fpMul(c, big.NewInt(8))
	y3 := fpSub(fpMul(e, fpSub(d, x3)), eightC)
	z3 := fpMul(fpAdd(p.y, p.y), p.z)
	return &g1Jac{x3, y3, z3}
}

func (p *g1Jac) neg() *g1Jac {
	if p.isInfinity() {
		return g1Infinity()
	}
	return &g1Jac{new(big.Int).Set(p.x), fpNeg(p.y), new(big.Int).Set(p.z)}
}

// mul computes k*P by double-and-add, scanning the big-endian scalar from
// byte 0, bit 7 downwards.
func (p *g1Jac) mul(k []byte) *g1Jac {
	r := g1Infinity()
	for _, b := range k {
		for bit := 7; bit >= 0; bit-- {
			r = r.double()
			if (b>>uint(bit))&1 == 1 {
				r = r.add(p)
			}
		}
	}
	return r
}

// twistB is 3/(9+i), the coefficient of the sextic twist E'.
var twistB = fp2Const(
	"19485874751759354771024239261021720505790618469301721065564631296452457478373",
	"266929791119991161246907387137283842545076965332900288569378510910307636690",
)

// g2Jac is a point on the twist y^2 = x^3 + b' over F_p2.
type g2Jac struct {
	x, y, z *gfP2
}

func g2Infinity() *g2Jac { return &g2Jac{gfP2One(), gfP2One(), gfP2Zero()} }

func g2Generator() *g2Jac {
	return &g2Jac{
		x: fp2Const("10857046999023057135944570762232829481370756359578518086990519993285655852781",
			"11559732032986387107991004021392285783925812861821192530917403151452391805634"),
		y: fp2Const("8495653923123431417604973247489272438418190587263600148770280649306958101930",
			"4082367875863433681332203403145435568316851327593401208105741076214120093531"),
		z: gfP2One(),
	}
}

func g2FromAffine(x, y *gfP2) *g2Jac {
	if x.isZero() && y.isZero() {
		return g2Infinity()
	}
	return &g2Jac{x.clone(), y.clone(), gfP2One()}
}

func (p *g2Jac) isInfinity() bool { return p.z.isZero() }

func (p *g2Jac) clone() *g2Jac { return &g2Jac{p.x.clone(), p.y.clone(), p.z.clone()} }

func (p *g2Jac) affine() (x, y *gfP2) {
	if p.isInfinity() {
		return gfP2Zero(), gfP2Zero()
	}
	zi := p.z.inv()
	zi2 := zi.sqr()
	return p.x.mul(zi2), p.y.mul(zi2.mul(zi))
}

func g2OnCurve(x, y *gfP2) bool {
	if x.isZero() && y.isZero() {
		return true
	}
	for _, c := range []*big.Int{x.re, x.im, y.re, y.im} {
		if c.Sign() < 0 || c.Cmp(P) >= 0 {
			return false
		}
	}
	return y.sqr().equal(x.sqr().mul(x).add(twistB))
}

func (p *g2Jac) add(q *g2Jac) *g2Jac {
	if p.isInfinity() {
		return q.clone()
	}
	if q.isInfinity() {
		return p.clone()
	}
	z1z1 := p.z.sqr()
	z2z2 := q.z.sqr()
	u1 := p.x.mul(z2z2)
	u2 := q.x.mul(z1z1)
	s1 := p.y.mul(q.z.mul(z2z2))
	s2 := q.y.mul(p.z.mul(z1z1))
	if u1.equal(u2) {
		if s1.equal(s2) {
			return p.double()
		}
		return g2Infinity()
	}
	h := u2.sub(u1)
	i := h.add(h).sqr()
	j := h.mul(i)
	r := s2.sub(s1)
	r = r.add(r)
	v := u1.mul(i)

	x3 := r.sqr().sub(j).sub(v.add(v))
	s1j := s1.mul(j)
	y3 := r.mul(v.sub(x3)).sub(s1j.add(s1j))
	z3 := p.z.add(q.z).sqr().sub(z1z1).sub(z2z2).mul(h)
	return &g2Jac{x3, y3, z3}
}

func (p *g2Jac) double() *g2Jac {
	if p.isInfinity() {
		return g2Infinity()
	}
	a := p.x.sqr()
	b := p.y.sqr()
	c := b.sqr()
	d := p.x.add(b).sqr().sub(a).sub(c)
	d = d.add(d)
	e := a.add(a).add(a)

	x3 := e.sqr().sub(d.add(d))
	eightC := c.mulScalar(big.NewInt(8))
	y3 := e.mul(d.sub(x3)).sub(eightC)
	z3 := p.y.add(p.y).mul(p.z)
	return &g2Jac{x3, y3, z3}
}

func (p *g2Jac) neg() *g2Jac {
	if p.isInfinity() {
		return g2Infinity()
	}
	return &g2Jac{p.x.clone(), p.y.neg(), p.z.clone()}
}

// mulBig computes k*P without reducing k, so multiplying by Order exposes
// points outside the prime-order subgroup.
func (p *g2Jac) mulBig(k *big.Int) *g2Jac {
	r := g2Infinity()
	for i := k.BitLen() - 1; i >= 0; i-- {
		r = r.double()
		if k.Bit(i) == 1 {
			r = r.add(p)
		}
	}
	return r
}

// inSubgroup reports whether [Order]P is infinity.
func (p *g2Jac) inSubgroup() bool {
	return p.mulBig(Order).isInfinity()
}
