package hal

// AVR ADC register addresses (ATmega328P data space).
const (
	RegADCL   uint16 = 0x78
	RegADCH   uint16 = 0x79
	RegADCSRA uint16 = 0x7A
	RegADMUX  uint16 = 0x7C
)

// ADCSRA bits.
const (
	ADEN  uint8 = 1 << 7 // ADC enable
	ADSC  uint8 = 1 << 6 // start conversion, cleared by hardware when done
	ADPS2 uint8 = 1 << 2
	ADPS1 uint8 = 1 << 1
	ADPS0 uint8 = 1 << 0
)

// ADMUX bits.
const (
	REFS0   uint8 = 1 << 6 // AVcc reference
	muxMask uint8 = 0x07
)

// maxADCPolls bounds the busy-wait on ADSC. A conversion takes 13 ADC clocks
// (~104µs at 125kHz), far fewer polls than this.
const maxADCPolls = 10000

// RegisterADC drives the on-chip successive approximation ADC through its
// memory-mapped registers.
type RegisterADC struct {
	regs Registers
}

var _ ADC = (*RegisterADC)(nil)

// NewRegisterADC creates an ADC on top of regs. Call Init before reading.
func NewRegisterADC(regs Registers) *RegisterADC {
	return &RegisterADC{regs: regs}
}

// Init selects the AVcc reference and enables the ADC with a /128 prescaler
// (16MHz/128 = 125kHz, inside the 50-200kHz window for full resolution).
func (a *RegisterADC) Init() {
	a.regs.Write(RegADMUX, REFS0)
	a.regs.Write(RegADCSRA, ADEN|ADPS2|ADPS1|ADPS0)
}

// Read runs one conversion on channel (0-7) and returns the 10-bit result.
func (a *RegisterADC) Read(channel uint8) uint16 {
	admux := a.regs.Read(RegADMUX) &^ 0x0F
	a.regs.Write(RegADMUX, admux|(channel&muxMask))

	a.regs.Write(RegADCSRA, a.regs.Read(RegADCSRA)|ADSC)
	for i := 0; i < maxADCPolls && a.regs.Read(RegADCSRA)&ADSC != 0; i++ {
	}

	// ADCL must be read first: it locks ADCH until ADCH is read.
	low := a.regs.Read(RegADCL)
	high := a.regs.Read(RegADCH)
	return uint16(high)<<8 | uint16(low)
}
