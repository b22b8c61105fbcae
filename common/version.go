package common

// 0.1.0  2026.09.02   build, sign and broadcast from a request file
// 0.2.0  2026.09.28   psbt output, snapshot dump/load, http api
const SENDMANY_VERSION = "0.2.0"
