package runtime

// AccountStorageOverhead is charged on top of the data length of every account.
const AccountStorageOverhead = 128

// Rent prices account storage. An account holding at least MinimumBalance
// for its size is never collected.
type Rent struct {
	LamportsPerByteYear uint64
	ExemptionYears      uint64
}

var DefaultRent = Rent{LamportsPerByteYear: 3480, ExemptionYears: 2}

func (r Rent) MinimumBalance(space int) uint64 {
	return (AccountStorageOverhead + uint64(space)) * r.LamportsPerByteYear * r.ExemptionYears
}
