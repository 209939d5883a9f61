// Package bn254 implements the alt_bn128 curve used by the EVM precompiles
// at 0x06-0x08 (EIP-196, EIP-197). Two interchangeable engines are
// provided: a from-scratch implementation over math/big and an adapter over
// gnark-crypto. Both consume the same byte encodings and produce identical
// outputs.
package bn254

import "math/big"

// Curve parameters.
var (
	// P is the base field modulus.
	P = bigFromStr("21888242871839275222246405745257275088696311157297823662689037894645226208583")
	// Order is the order of G1 and G2.
	Order = bigFromStr("21888242871839275222246405745257275088548364400416034343698204186575808495617")

	curveB = big.NewInt(3)
)

func bigFromStr(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("bn254: invalid constant " + s)
	}
	return v
}

// Base field F_p. Every helper returns a fresh reduced value.

func fpAdd(a, b *big.Int) *big.Int {
	r := new(big.Int).Add(a, b)
	return r.Mod(r, P)
}

func fpSub(a, b *big.Int) *big.Int {
	r := new(big.Int).Sub(a, b)
	return r.Mod(r, P)
}

func fpMul(a, b *big.Int) *big.Int {
	r := new(big.Int).Mul(a, b)
	return r.Mod(r, P)
}

func fpSqr(a *big.Int) *big.Int { return fpMul(a, a) }

func fpNeg(a *big.Int) *big.Int {
	r := new(big.Int).Mod(a, P)
	if r.Sign() == 0 {
		return r
	}
	return r.Sub(P, r)
}

func fpInv(a *big.Int) *big.Int {
	return new(big.Int).ModInverse(a, P)
}

// gfP2 is re + im*i in F_p[i]/(i^2+1).
type gfP2 struct {
	re, im *big.Int
}

func newGFp2(re, im *big.Int) *gfP2 {
	return &gfP2{re: new(big.Int).Set(re), im: new(big.Int).Set(im)}
}

func gfP2Zero() *gfP2 { return &gfP2{re: new(big.Int), im: new(big.Int)} }
func gfP2One() *gfP2  { return &gfP2{re: big.NewInt(1), im: new(big.Int)} }

func (e *gfP2) clone() *gfP2 { return newGFp2(e.re, e.im) }

func (e *gfP2) isZero() bool { return e.re.Sign() == 0 && e.im.Sign() == 0 }

func (e *gfP2) equal(f *gfP2) bool {
	return fpSub(e.re, f.re).Sign() == 0 && fpSub(e.im, f.im).Sign() == 0
}

func (e *gfP2) add(f *gfP2) *gfP2 {
	return &gfP2{re: fpAdd(e.re, f.re), im: fpAdd(e.im, f.im)}
}

func (e *gfP2) sub(f *gfP2) *gfP2 {
	return &gfP2{re: fpSub(e.re, f.re), im: fpSub(e.im, f.im)}
}

func (e *gfP2) neg() *gfP2 {
	return &gfP2{re: fpNeg(e.re), im: fpNeg(e.im)}
}

func (e *gfP2) conj() *gfP2 {
	return &gfP2{re: new(big.Int).Set(e.re), im: fpNeg(e.im)}
}

// mul uses Karatsuba: im = (a0+a1)(b0+b1) - a0b0 - a1b1.
func (e *gfP2) mul(f *gfP2) *gfP2 {
	v0 := fpMul(e.re, f.re)
	v1 := fpMul(e.im, f.im)
	cross := fpMul(fpAdd(e.re, e.im), fpAdd(f.re, f.im))
	return &gfP2{re: fpSub(v0, v1), im: fpSub(cross, fpAdd(v0, v1))}
}

// sqr computes (a+b)(a-b) + 2ab*i.
func (e *gfP2) sqr() *gfP2 {
	ab := fpMul(e.re, e.im)
	return &gfP2{re: fpMul(fpAdd(e.re, e.im), fpSub(e.re, e.im)), im: fpAdd(ab, ab)}
}

func (e *gfP2) inv() *gfP2 {
	norm := fpAdd(fpSqr(e.re), fpSqr(e.im))
	n := fpInv(norm)
	return &gfP2{re: fpMul(e.re, n), im: fpMul(fpNeg(e.im), n)}
}

func (e *gfP2) mulScalar(s *big.Int) *gfP2 {
	return &gfP2{re: fpMul(e.re, s), im: fpMul(e.im, s)}
}

// mulXi multiplies by the sextic non-residue xi = 9+i.
func (e *gfP2) mulXi() *gfP2 {
	nine := big.NewInt(9)
	return &gfP2{
		re: fpSub(fpMul(e.re, nine), e.im),
		im: fpAdd(fpMul(e.im, nine), e.re),
	}
}

// gfP6 is c0 + c1*v + c2*v^2 in F_p2[v]/(v^3-xi).
type gfP6 struct {
	c0, c1, c2 *gfP2
}

func gfP6Zero() *gfP6 { return &gfP6{gfP2Zero(), gfP2Zero(), gfP2Zero()} }
func gfP6One() *gfP6  { return &gfP6{gfP2One(), gfP2Zero(), gfP2Zero()} }

func (e *gfP6) clone() *gfP6 { return &gfP6{e.c0.clone(), e.c1.clone(), e.c2.clone()} }

func (e *gfP6) isZero() bool { return e.c0.isZero() && e.c1.isZero() && e.c2.isZero() }

func (e *gfP6) add(f *gfP6) *gfP6 {
	return &gfP6{e.c0.add(f.c0), e.c1.add(f.c1), e.c2.add(f.c2)}
}

func (e *gfP6) sub(f *gfP6) *gfP6 {
	return &gfP6{e.c0.sub(f.c0), e.c1.sub(f.c1), e.c2.sub(f.c2)}
}

func (e *gfP6) neg() *gfP6 {
	return &gfP6{e.c0.neg(), e.c1.neg(), e.c2.neg()}
}

func (e *gfP6) mul(f *gfP6) *gfP6 {
	t0 := e.c0.mul(f.c0)
	t1 := e.c1.mul(f.c1)
	t2 := e.c2.mul(f.c2)

	c0 := t0.add(e.c1.add(e.c2).mul(f.c1.add(f.c2)).sub(t1).sub(t2).mulXi())
	c1 := e.c0.add(e.c1).mul(f.c0.add(f.c1)).sub(t0).sub(t1).add(t2.mulXi())
	c2 := e.c0.add(e.c2).mul(f.c0.add(f.c2)).sub(t0).sub(t2).add(t1)
	return &gfP6{c0, c1, c2}
}

func (e *gfP6) sqr() *gfP6 {
	s0 := e.c0.sqr()
	ab := e.c0.mul(e.c1)
	s1 := ab.add(ab)
	s2 := e.c0.add(e.c2).sub(e.c1).sqr()
	bc := e.c1.mul(e.c2)
	s3 := bc.add(bc)
	s4 := e.c2.sqr()

	return &gfP6{
		c0: s0.add(s3.mulXi()),
		c1: s1.add(s4.mulXi()),
		c2: s1.add(s2).add(s3).sub(s0).sub(s4),
	}
}

func (e *gfP6) inv() *gfP6 {
	a := e.c0.sqr().sub(e.c1.mul(e.c2).mulXi())
	b := e.c2.sqr().mulXi().sub(e.c0.mul(e.c1))
	c := e.c1.sqr().sub(e.c0.mul(e.c2))

	f := e.c0.mul(a).add(e.c2.mul(b).add(e.c1.mul(c)).mulXi())
	fi := f.inv()
	return &gfP6{a.mul(fi), b.mul(fi), c.mul(fi)}
}

// scale multiplies every coefficient by s.
func (e *gfP6) scale(s *gfP2) *gfP6 {
	return &gfP6{e.c0.mul(s), e.c1.mul(s), e.c2.mul(s)}
}

// mulV shifts coefficients: (c0 + c1 v + c2 v^2) v = c2 xi + c0 v + c1 v^2.
func (e *gfP6) mulV() *gfP6 {
	return &gfP6{e.c2.mulXi(), e.c0.clone(), e.c1.clone()}
}

// gfP12 is c0 + c1*w in F_p6[w]/(w^2-v). The pairing target group lives here.
type gfP12 struct {
	c0, c1 *gfP6
}

func gfP12One() *gfP12 { return &gfP12{gfP6One(), gfP6Zero()} }

func (e *gfP12) clone() *gfP12 { return &gfP12{e.c0.clone(), e.c1.clone()} }

func (e *gfP12) isOne() bool {
	one := e.c0.c0
	return one.re.Cmp(big.NewInt(1)) == 0 && one.im.Sign() == 0 &&
		e.c0.c1.isZero() && e.c0.c2.isZero() && e.c1.isZero()
}

func (e *gfP12) mul(f *gfP12) *gfP12 {
	t1 := e.c0.mul(f.c0)
	t2 := e.c1.mul(f.c1)
	return &gfP12{
		c0: t1.add(t2.mulV()),
		c1: e.c0.add(e.c1).mul(f.c0.add(f.c1)).sub(t1).sub(t2),
	}
}

func (e *gfP12) sqr() *gfP12 {
	ab := e.c0.mul(e.c1)
	t := e.c0.add(e.c1)
	u := e.c0.add(e.c1.mulV())
	return &gfP12{
		c0: t.mul(u).sub(ab).sub(ab.mulV()),
		c1: ab.add(ab),
	}
}

// inv uses (a + b w)^-1 = (a - b w) / (a^2 - b^2 v).
func (e *gfP12) inv() *gfP12 {
	t := e.c0.sqr().sub(e.c1.sqr().mulV()).inv()
	return &gfP12{c0: e.c0.mul(t), c1: e.c1.mul(t).neg()}
}

// conj equals the inverse for elements of norm one.
func (e *gfP12) conj() *gfP12 {
	return &gfP12{c0: e.c0.clone(), c1: e.c1.neg()}
}

func (e *gfP12) exp(k *big.Int) *gfP12 {
	r := gfP12One()
	base := e.clone()
	for i := k.BitLen() - 1; i >= 0; i-- {
		r = r.sqr()
		if k.Bit(i) == 1 {
			r = r.mul(base)
		}
	}
	return r
}
