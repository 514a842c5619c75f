package ir

import "math"

func bitsToF32(b uint32) float32 { return math.Float32frombits(b) }
func bitsToF64(b uint64) float64 { return math.Float64frombits(b) }

func f32ToBits(f float32) uint32 { return math.Float32bits(f) }
func f64ToBits(f float64) uint64 { return math.Float64bits(f) }
