package mpr121

// I2C addresses selectable by strapping the ADDR pin.
const (
	DefaultAddress = 0x5A
	AddressVDD     = 0x5B
	AddressSDA     = 0x5C
	AddressSCL     = 0x5D
)

// NumChannels is the number of touch electrodes on the chip.
const NumChannels = 12

// numDataChannels includes the proximity electrode that the data registers also cover.
const numDataChannels = NumChannels + 1

// Register map, from the datasheet.
const (
	touchStatusRegister      = 0x00
	filteredDataBaseRegister = 0x04
	baselineBaseRegister     = 0x1E

	mhdRisingRegister    = 0x2B
	nhdRisingRegister    = 0x2C
	nclRisingRegister    = 0x2D
	fdlRisingRegister    = 0x2E
	mhdFallingRegister   = 0x2F
	nhdFallingRegister   = 0x30
	nclFallingRegister   = 0x31
	fdlFallingRegister   = 0x32
	nhdTouchedRegister   = 0x33
	nclTouchedRegister   = 0x34
	fdlTouchedRegister   = 0x35
	touchThresholdBase   = 0x41
	releaseThresholdBase = 0x42

	debounceRegister  = 0x5B
	config1Register   = 0x5C
	config2Register   = 0x5D
	ecrRegister       = 0x5E
	softResetRegister = 0x80
)

const (
	softResetValue = 0x63

	// stopModeValue clears every electrode enable bit in the ECR.
	stopModeValue = 0x00

	// ecrBaselineTracking loads the baseline from the 5 high bits of the first reading.
	ecrBaselineTracking = 0x80

	touchStatusMask = 0x0FFF
	filteredMask    = 0x03FF
)

// TouchThresholdRegister returns the touch threshold register of the given channel.
func TouchThresholdRegister(channel int) byte {
	return byte(touchThresholdBase + 2*channel)
}

// ReleaseThresholdRegister returns the release threshold register of the given channel.
func ReleaseThresholdRegister(channel int) byte {
	return byte(releaseThresholdBase + 2*channel)
}

// IsValidAddress reports whether addr is one of the four addresses the chip can answer on.
func IsValidAddress(addr int) bool {
	return addr >= DefaultAddress && addr <= AddressSCL
}
