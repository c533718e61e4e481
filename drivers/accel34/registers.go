package accel34

// I2C addresses (SDO/SA0 pin).
const (
	AddressSDOHigh = 0x19
	AddressSDOLow  = 0x18
	Address        = AddressSDOHigh
)

// DeviceID is the WHO_AM_I value.
const DeviceID = 0x11

const (
	regWhoAmI  = 0x0F
	regCtrl1   = 0x20
	regCtrl2   = 0x21
	regCtrl3   = 0x22
	regCtrl4   = 0x23
	regCtrl5   = 0x24
	regStatus  = 0x27
	regOutXL   = 0x28
	regInt1Cfg = 0x30
	regInt1Src = 0x31
	regInt1Ths = 0x32
	regInt1Dur = 0x33

	// autoIncrement is ORed into the register address of multi-byte reads.
	autoIncrement = 0x80
)

// CTRL_REG1 fields.
const (
	ctrl1ODRShift = 4
	ctrl1ODRMask  = 0xF0
	ctrl1LowPower = 0x08
	ctrl1XYZ      = 0x07
)

// CTRL_REG3 fields.
const ctrl3DataReadyInt1 = 0x10

// CTRL_REG4 fields.
const (
	ctrl4BDU     = 0x80
	ctrl4FSShift = 4
	ctrl4FSMask  = 0x30
	ctrl4HR      = 0x08
)

// CTRL_REG5 fields.
const ctrl5Boot = 0x80

// STATUS_REG fields.
const statusZYXDA = 0x08
