package domain

import "math"

// MaxSeed は送信可能なシードの上限です。SDK はシードを int32 で扱います。
const MaxSeed = math.MaxInt32

// ValidateSeed はシードが [0, MaxSeed] の範囲にあるかを確認します。nil は未指定として許可します。
func ValidateSeed(seed *int64) error {
	if seed == nil {
		return nil
	}
	if *seed < 0 || *seed > MaxSeed {
		return Validationf("种子必须是 0 到 %d 之间的整数。", MaxSeed)
	}
	return nil
}
