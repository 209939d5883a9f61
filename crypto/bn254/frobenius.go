package bn254

import "math/big"

// Frobenius maps on F_p12. Writing f = sum c_jk v^j w^k, the map x -> x^(p^n)
// conjugates each F_p2 coefficient when n is odd and multiplies c_jk by
// xi^((2j+k)(p^n-1)/6).

func fp2Const(re, im string) *gfP2 {
	return &gfP2{re: bigFromStr(re), im: bigFromStr(im)}
}

func fp2Real(re string) *gfP2 {
	return &gfP2{re: bigFromStr(re), im: new(big.Int)}
}

// frob[n-1][k-1] holds xi^(k(p^n-1)/6) for n = 1..3, k = 1..5.
var frob = [3][5]*gfP2{
	{
		fp2Const("8376118865763821496583973867626364092589906065868298776909617916018768340080",
			"16469823323077808223889137241176536799009286646108169935659301613961712198316"),
		fp2Const("21575463638280843010398324269430826099269044274347216827212613867836435027261",
			"10307601595873709700152284273816112264069230130616436755625194854815875713954"),
		fp2Const("2821565182194536844548159561693502659359617185244120367078079554186484126554",
			"3505843767911556378687030309984248845540243509899259641013678093033130930403"),
		fp2Const("2581911344467009335267311115468803099551665605076196740867805258568234346338",
			"19937756971775647987995932169929341994314640652964949448313374472400716661030"),
		fp2Const("685108087231508774477564247770172212460312782337200605669322048753928464687",
			"8447204650696766136447902020341177575205426561248465145919723016860428151883"),
	},
	{
		fp2Real("21888242871839275220042445260109153167277707414472061641714758635765020556617"),
		fp2Real("21888242871839275220042445260109153167277707414472061641714758635765020556616"),
		fp2Real("21888242871839275222246405745257275088696311157297823662689037894645226208582"),
		fp2Real("2203960485148121921418603742825762020974279258880205651966"),
		fp2Real("2203960485148121921418603742825762020974279258880205651967"),
	},
	{
		fp2Const("11697423496358154304825782922584725312912383441159505038794027105778954184319",
			"303847389135065887422783454877609941456349188919719272345083954437860409601"),
		fp2Const("3772000881919853776433695186713858239009073593817195771773381919316419345261",
			"2236595495967245188281701248203181795121068902605861227855261137820944008926"),
		fp2Const("19066677689644738377698246183563772429336693972053703295610958340458742082029",
			"18382399103927718843559375435273026243156067647398564021675359801612095278180"),
		fp2Const("5324479202449903542726783395506214481928257762400643279780343368557297135718",
			"16208900380737693084919495127334387981393726419856888799917914180988844123039"),
		fp2Const("8941241848238582420466759817324047081148088512956452953208002715982955420483",
			"10338197737521362862238855242243140895517409139741313354160881284257516364953"),
	},
}

// frobenius returns f^(p^n) for n in {1, 2, 3}.
func (f *gfP12) frobenius(n int) *gfP12 {
	c := frob[n-1]
	lift := func(x *gfP2) *gfP2 {
		if n%2 == 1 {
			return x.conj()
		}
		return x.clone()
	}
	return &gfP12{
		c0: &gfP6{
			c0: lift(f.c0.c0),
			c1: lift(f.c0.c1).mul(c[1]),
			c2: lift(f.c0.c2).mul(c[3]),
		},
		c1: &gfP6{
			c0: lift(f.c1.c0).mul(c[0]),
			c1: lift(f.c1.c1).mul(c[2]),
			c2: lift(f.c1.c2).mul(c[4]),
		},
	}
}

// Twist Frobenius constants used by the last two Miller loop steps.
var (
	xiToPMinus1Over3 = frob[0][1]
	xiToPMinus1Over2 = frob[0][2]
	// xi^((p^2-1)/3), real.
	xiToPSqMinus1Over3 = bigFromStr("21888242871839275220042445260109153167277707414472061641714758635765020556616")
)

// twistFrobenius maps Q to pi_p(Q) on the twist.
func twistFrobenius(qx, qy *gfP2) (*gfP2, *gfP2) {
	return qx.conj().mul(xiToPMinus1Over3), qy.conj().mul(xiToPMinus1Over2)
}
