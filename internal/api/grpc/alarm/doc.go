// Package alarm implements the gRPC control API of the windowed alarm.
//
// The service is described by a hand-maintained grpc.ServiceDesc whose
// messages are protobuf well-known types: requests use Empty, BoolValue,
// UInt32Value or Struct, and every call answers with the alarm state encoded
// as a Struct. The same codec helpers are used by the client.
package alarm
