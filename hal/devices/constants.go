// hal/devices/constants.go
package devices

// 8259A PIC I/O Port Addresses
const (
	PIC_MASTER_CMD_PORT  uint16 = 0x20 // Master PIC Command Port
	PIC_MASTER_DATA_PORT uint16 = 0x21 // Master PIC Data (IMR) Port
	PIC_SLAVE_CMD_PORT   uint16 = 0xA0 // Slave PIC Command Port
	PIC_SLAVE_DATA_PORT  uint16 = 0xA1 // Slave PIC Data (IMR) Port
)

// IRQ lines wired on the simulated board
const (
	PIT_IRQ              uint8 = 0 // Programmable Interval Timer
	KEYBOARD_IRQ         uint8 = 1 // Keyboard
	PIC_MASTER_SLAVE_IRQ uint8 = 2 // Master PIC IRQ line connected to Slave PIC
)

// ICW1 (Initialization Command Word 1) bits
const (
	PIC_ICW1_IC4  byte = 0x01 // ICW4 needed
	PIC_ICW1_SNGL byte = 0x02 // Single PIC, no ICW3
	PIC_ICW1_LTIM byte = 0x08 // Level triggered
	PIC_ICW1_INIT byte = 0x10 // Marks the write as ICW1
)

// ICW4 bits
const (
	PIC_ICW4_8086 byte = 0x01 // 8086/8088 mode
	PIC_ICW4_AEOI byte = 0x02 // Auto EOI
)

// OCW2 bits
const (
	PIC_OCW2_LEVEL_MASK byte = 0x07 // IR level for specific EOI
	PIC_OCW2_EOI_CMD    byte = 0x20 // End of Interrupt
	PIC_OCW2_SL_CMD     byte = 0x40 // Specific
)

// OCW3 bits
const (
	PIC_OCW3_RIS_CMD  byte = 0x01 // Read ISR (1) or IRR (0)
	PIC_OCW3_RR_CMD   byte = 0x02 // Read Register
	PIC_OCW3_POLL_CMD byte = 0x04 // Poll
	PIC_OCW3_ID       byte = 0x08 // Marks the write as OCW3
)

// Keyboard Controller (8042) ports
const (
	KEYBOARD_PORT_DATA    uint16 = 0x60 // Data Register (read/write)
	KEYBOARD_PORT_STATUS  uint16 = 0x64 // Status Register (read)
	KEYBOARD_PORT_COMMAND uint16 = 0x64 // Command Register (write)
)

// 8042 status register bits
const (
	KBC_STATUS_OUTPUT_FULL byte = 0x01 // Data waiting at 0x60
	KBC_STATUS_SYSTEM      byte = 0x04 // Self-test passed
	KBC_STATUS_COMMAND     byte = 0x08 // Last write went to 0x64
	KBC_STATUS_AUX_DATA    byte = 0x20 // Byte at 0x60 is from the aux (mouse) port
)

// 8042 controller commands
const (
	KBC_CMD_READ_COMMAND_BYTE  byte = 0x20
	KBC_CMD_WRITE_COMMAND_BYTE byte = 0x60
	KBC_CMD_SELF_TEST          byte = 0xAA
	KBC_CMD_TEST_FIRST_PORT    byte = 0xAB
	KBC_CMD_DISABLE_FIRST_PORT byte = 0xAD
	KBC_CMD_ENABLE_FIRST_PORT  byte = 0xAE
)

// 8042 command byte bits and responses
const (
	KBC_CB_FIRST_PORT_IRQ  byte = 0x01
	KBC_CB_SYSTEM_FLAG     byte = 0x04
	KBC_CB_FIRST_PORT_CLK  byte = 0x10 // 1 = first port clock disabled
	KBC_CB_TRANSLATION     byte = 0x40
	KBC_RESPONSE_SELF_TEST byte = 0x55
	KBC_RESPONSE_PORT_OK   byte = 0x00
)

// Serial Port Constants
const (
	COM1_PORT_BASE uint16 = 0x3F8
	COM1_PORT_END  uint16 = 0x3FF

	// Offsets from base port
	RHR_THR_DLL uint16 = 0 // RHR (R), THR (W), Divisor Latch LSB (DLAB=1)
	IER_DLH     uint16 = 1 // Interrupt Enable, Divisor Latch MSB (DLAB=1)
	IIR_FCR     uint16 = 2 // Interrupt ID (R), FIFO Control (W)
	LCR         uint16 = 3 // Line Control
	MCR         uint16 = 4 // Modem Control
	LSR         uint16 = 5 // Line Status
	MSR         uint16 = 6 // Modem Status
	SCR         uint16 = 7 // Scratch
)

const (
	LCR_DLAB           byte = 0x80 // Divisor Latch Access Bit
	LSR_THRE           byte = 0x20 // Transmitter Holding Register Empty
	LSR_TEMT           byte = 0x40 // Transmitter Empty
	IIR_NO_INT_PENDING byte = 0x01
)
