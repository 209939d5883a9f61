package precompiles

import (
	"math"
	"math/big"

	"github.com/eth2030/stateless/u256"
)

// Fixed and per-word costs.
const (
	ecrecoverGas        = 3000
	sha256BaseGas       = 60
	sha256PerWordGas    = 12
	ripemd160BaseGas    = 600
	ripemd160PerWordGas = 120
	identityBaseGas     = 15
	identityPerWordGas  = 3

	// EIP-1108 (Istanbul) BN254 prices.
	bn256AddGas             = 150
	bn256ScalarMulGas       = 6000
	bn256PairingBaseGas     = 45000
	bn256PairingPerPointGas = 34000

	pointEvaluationGas = 50000

	// EIP-2537 (Prague) BLS12-381 prices.
	bls12G1AddGas          = 375
	bls12G1MulGas          = 12000
	bls12G2AddGas          = 600
	bls12G2MulGas          = 22500
	bls12PairingBaseGas    = 37700
	bls12PairingPerPairGas = 32600
	bls12MapG1Gas          = 5500
	bls12MapG2Gas          = 23800

	modExpMinGas = 200
)

// MSM discounts in parts per thousand, indexed by k-1. Batches beyond the
// table use the max discount.
var g1MSMDiscount = [128]uint64{1000, 949, 848, 797, 764, 750, 738, 728, 719, 712, 705, 698, 692, 687, 682, 677, 673, 669, 665, 661, 658, 654, 651, 648, 645, 642, 640, 637, 635, 632, 630, 627, 625, 623, 621, 619, 617, 615, 613, 611, 609, 608, 606, 604, 603, 601, 599, 598, 596, 595, 593, 592, 591, 589, 588, 586, 585, 584, 582, 581, 580, 579, 577, 576, 575, 574, 573, 572, 570, 569, 568, 567, 566, 565, 564, 563, 562, 561, 560, 559, 558, 557, 556, 555, 554, 553, 552, 551, 550, 549, 548, 547, 547, 546, 545, 544, 543, 542, 541, 540, 540, 539, 538, 537, 536, 536, 535, 534, 533, 532, 532, 531, 530, 529, 528, 528, 527, 526, 525, 525, 524, 523, 522, 522, 521, 520, 520, 519}

var g2MSMDiscount = [128]uint64{1000, 1000, 923, 884, 855, 832, 812, 796, 782, 770, 759, 749, 740, 732, 724, 717, 711, 704, 699, 693, 688, 683, 679, 674, 670, 666, 663, 659, 655, 652, 649, 646, 643, 640, 637, 634, 632, 629, 627, 624, 622, 620, 618, 615, 613, 611, 609, 607, 606, 604, 602, 600, 598, 597, 595, 593, 592, 590, 589, 587, 586, 584, 583, 582, 580, 579, 578, 576, 575, 574, 573, 571, 570, 569, 568, 567, 566, 565, 563, 562, 561, 560, 559, 558, 557, 556, 555, 554, 553, 552, 552, 551, 550, 549, 548, 547, 546, 545, 545, 544, 543, 542, 541, 541, 540, 539, 538, 537, 537, 536, 535, 535, 534, 533, 532, 532, 531, 530, 530, 529, 528, 528, 527, 526, 526, 525, 524, 524}

const (
	g1MSMMaxDiscount = 519
	g2MSMMaxDiscount = 524
)

// msmGas is k * mulGas * discount(k) / 1000.
func msmGas(k int, mulGas uint64, table []uint64, maxDiscount uint64) uint64 {
	if k == 0 {
		return 0
	}
	discount := maxDiscount
	if k <= len(table) {
		discount = table[k-1]
	}
	return uint64(k) * mulGas * discount / 1000
}

// modExpGas prices MODEXP per EIP-2565:
// max(200, mult_complexity(max(base_len, mod_len)) * max(iterations, 1) / 3).
func modExpGas(input []byte) uint64 {
	header := padRight(input, 96)
	baseLen := new(big.Int).SetBytes(header[0:32])
	expLen := new(big.Int).SetBytes(header[32:64])
	modLen := new(big.Int).SetBytes(header[64:96])
	if baseLen.BitLen() > 32 || expLen.BitLen() > 32 || modLen.BitLen() > 32 {
		return math.MaxUint64
	}
	bLen, eLen, mLen := baseLen.Uint64(), expLen.Uint64(), modLen.Uint64()

	var data []byte
	if len(input) > 96 {
		data = input[96:]
	}
	// The exponent head is at most its first 32 bytes.
	headLen := eLen
	if headLen > 32 {
		headLen = 32
	}
	head := getDataSlice(data, bLen, headLen)

	var iterations uint64
	if bits := u256.BitLen(head); bits > 0 {
		iterations = uint64(bits - 1)
	}
	if eLen > 32 {
		iterations += 8 * (eLen - 32)
	}
	if iterations < 1 {
		iterations = 1
	}

	maxLen := bLen
	if mLen > maxLen {
		maxLen = mLen
	}
	words := (maxLen + 7) / 8
	complexity := new(big.Int).SetUint64(words * words)
	gas := complexity.Mul(complexity, new(big.Int).SetUint64(iterations))
	gas.Div(gas, big.NewInt(3))
	if !gas.IsUint64() {
		return math.MaxUint64
	}
	if g := gas.Uint64(); g > modExpMinGas {
		return g
	}
	return modExpMinGas
}
