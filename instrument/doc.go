// Package instrument defines the two hardware boundaries of a measurement
// bench and the SCPI command strings sent across the generator boundary.
//
// An [Acquirer] captures synchronously sampled voltages from one or more
// channels. A [Generator] accepts SCPI commands and answers queries.
// Implementations live in the sub-packages: sim (in-process bench model),
// scpitcp (raw socket, LXI port 5025) and usbtmc (Linux character device).
package instrument
