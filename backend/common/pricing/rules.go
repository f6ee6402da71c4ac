package pricing

// Rules 计费规则常量（起重、上限、档位边界）
// 作为不可变配置传入 Calculator，可由配置文件覆盖
type Rules struct {
	PincodeLength int `mapstructure:"pincode_length" json:"pincode_length"`

	// 加急件
	PriorityLimitGrams float64 `mapstructure:"priority_limit_grams" json:"priority_limit_grams"`
	PriorityUnitGrams  float64 `mapstructure:"priority_unit_grams" json:"priority_unit_grams"`

	// 标准件最低计费重量
	TrainMinKg      float64 `mapstructure:"train_min_kg" json:"train_min_kg"`
	DoxRoadMinGrams float64 `mapstructure:"dox_road_min_grams" json:"dox_road_min_grams"`
	DoxAirMinGrams  float64 `mapstructure:"dox_air_min_grams" json:"dox_air_min_grams"`
	NonDoxRoadMinKg float64 `mapstructure:"non_dox_road_min_kg" json:"non_dox_road_min_kg"`
	NonDoxAirMinKg  float64 `mapstructure:"non_dox_air_min_kg" json:"non_dox_air_min_kg"`

	// DOX 档位边界
	DoxFirstSlabGrams  float64 `mapstructure:"dox_first_slab_grams" json:"dox_first_slab_grams"`
	DoxSecondSlabGrams float64 `mapstructure:"dox_second_slab_grams" json:"dox_second_slab_grams"`
	DoxAddBlockGrams   float64 `mapstructure:"dox_add_block_grams" json:"dox_add_block_grams"`

	// NON-DOX 档位边界
	NonDoxFirstSlabKg float64 `mapstructure:"non_dox_first_slab_kg" json:"non_dox_first_slab_kg"`
}

// DefaultRules 默认计费规则
func DefaultRules() Rules {
	return Rules{
		PincodeLength:      6,
		PriorityLimitGrams: 100000,
		PriorityUnitGrams:  500,
		TrainMinKg:         25,
		DoxRoadMinGrams:    3000,
		DoxAirMinGrams:     0,
		NonDoxRoadMinKg:    3,
		NonDoxAirMinKg:     0,
		DoxFirstSlabGrams:  250,
		DoxSecondSlabGrams: 500,
		DoxAddBlockGrams:   500,
		NonDoxFirstSlabKg:  5,
	}
}

// WithDefaults 未配置（<=0）的字段使用默认值
// 最低计费重量允许为 0，因此只补齐档位与上限
func (r Rules) WithDefaults() Rules {
	def := DefaultRules()
	if r.PincodeLength <= 0 {
		r.PincodeLength = def.PincodeLength
	}
	if r.PriorityLimitGrams <= 0 {
		r.PriorityLimitGrams = def.PriorityLimitGrams
	}
	if r.PriorityUnitGrams <= 0 {
		r.PriorityUnitGrams = def.PriorityUnitGrams
	}
	if r.DoxFirstSlabGrams <= 0 {
		r.DoxFirstSlabGrams = def.DoxFirstSlabGrams
	}
	if r.DoxSecondSlabGrams <= 0 {
		r.DoxSecondSlabGrams = def.DoxSecondSlabGrams
	}
	if r.DoxAddBlockGrams <= 0 {
		r.DoxAddBlockGrams = def.DoxAddBlockGrams
	}
	if r.NonDoxFirstSlabKg <= 0 {
		r.NonDoxFirstSlabKg = def.NonDoxFirstSlabKg
	}
	return r
}

// doxMinGrams DOX 按运输方式的最低计费克数
func (r Rules) doxMinGrams(mode Mode) float64 {
	if mode == ModeRoad {
		return r.DoxRoadMinGrams
	}
	return r.DoxAirMinGrams
}

func (r Rules) nonDoxMinKg(mode Mode) float64 {
	if mode == ModeRoad {
		return r.NonDoxRoadMinKg
	}
	return r.NonDoxAirMinKg
}
