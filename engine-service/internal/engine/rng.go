package engine

import "math/rand"

// Rand — инжектируемый источник случайности движка.
// Взвешенный выбор событий, броски боя и прочие решения проходят только
// через этот интерфейс, чтобы тесты могли подставить детерминированную заглушку.
type Rand interface {
	// Float64 возвращает равномерное значение в [0,1).
	Float64() float64
	// WeightedIndex возвращает индекс в [0,len(weights)) с вероятностью,
	// пропорциональной весу. Вызывающий гарантирует непустой срез
	// с положительной суммой весов.
	WeightedIndex(weights []int) int
}

type seededRand struct {
	r *rand.Rand
}

// NewRand создает источник случайности с заданным сидом (один на игровую сессию).
func NewRand(seed int64) Rand {
	return &seededRand{r: rand.New(rand.NewSource(seed))}
}

func (s *seededRand) Float64() float64 {
	return s.r.Float64()
}

func (s *seededRand) WeightedIndex(weights []int) int {
	total := 0
	for _, w := range weights {
		total += w
	}
	roll := s.r.Intn(total)
	for i, w := range weights {
		roll -= w
		if roll < 0 {
			return i
		}
	}
	return len(weights) - 1
}
