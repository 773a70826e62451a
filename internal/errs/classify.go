package errs

import (
	"context"
	"database/sql"
	"errors"
	"net"
	"regexp"
	"strconv"

	"github.com/sijms/go-ora/v2/network"
)

// Oracle server error codes, grouped by category.
// Full list: https://docs.oracle.com/en/error-help/db/
var oraCodes = map[int]Category{
	// Network / session connectivity
	28:    Connection, // session killed
	1012:  Connection, // not logged on
	1034:  Connection, // ORACLE not available
	3113:  Connection, // end-of-file on communication channel
	3114:  Connection, // not connected to ORACLE
	12154: Connection, // TNS: could not resolve the connect identifier
	12170: Connection, // TNS: connect timeout occurred
	12514: Connection, // TNS: listener does not currently know of service
	12528: Connection, // TNS: listener blocking all connections
	12537: Connection, // TNS: connection closed
	12541: Connection, // TNS: no listener
	12545: Connection, // target host or object does not exist

	// Credentials
	1005:  Authentication, // null password given
	1017:  Authentication, // invalid username/password
	28000: Authentication, // account is locked
	28001: Authentication, // password has expired

	// Privileges
	1031: Permission, // insufficient privileges
	1045: Permission, // user lacks CREATE SESSION privilege
	2004: Permission, // security violation

	// Malformed statements
	900:  Syntax, // invalid SQL statement
	904:  Syntax, // invalid identifier
	911:  Syntax, // invalid character
	923:  Syntax, // FROM keyword not found where expected
	933:  Syntax, // SQL command not properly ended
	936:  Syntax, // missing expression
	1735: Syntax, // invalid ALTER TABLE option

	// Data-level failures
	1:     Data, // unique constraint violated
	942:   Data, // table or view does not exist
	1400:  Data, // cannot insert NULL
	1403:  Data, // no data found
	1722:  Data, // invalid number
	2291:  Data, // integrity constraint violated - parent key not found
	2292:  Data, // integrity constraint violated - child record found
	12899: Data, // value too large for column

	// Exhaustion
	1000:  Resource, // maximum open cursors exceeded
	1653:  Resource, // unable to extend table
	4031:  Resource, // unable to allocate shared memory
	12516: Resource, // TNS: listener found no handler with matching protocol
	12520: Resource, // TNS: listener found no handler for requested server type
}

// oraCodePattern matches an "ORA-NNNNN" token in an error string. Some
// failures surface as plain text rather than a typed driver error.
var oraCodePattern = regexp.MustCompile(`ORA-(\d{1,5})`)

// Classify maps a raw backend error into a Category. The lookup is
// deterministic: a given error always lands in the same bucket. Errors
// that match nothing are Unknown.
func Classify(err error) Category {
	if err == nil {
		return Unknown
	}

	// Already classified at a driver boundary.
	var e *Error
	if errors.As(err, &e) {
		return e.Category
	}

	// Deadlines and cancellations behave like a lost connection: the
	// round trip never completed.
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return Connection
	}

	if errors.Is(err, sql.ErrNoRows) {
		return Data
	}

	// Typed Oracle server error from go-ora.
	var oraErr *network.OracleError
	if errors.As(err, &oraErr) {
		return classifyOraCode(oraErr.ErrCode)
	}

	// Transport-level failure before the server ever answered.
	var netErr net.Error
	if errors.As(err, &netErr) {
		return Connection
	}

	// Last resort: scan the message for an ORA code.
	if m := oraCodePattern.FindStringSubmatch(err.Error()); m != nil {
		if code, convErr := strconv.Atoi(m[1]); convErr == nil {
			return classifyOraCode(code)
		}
	}

	return Unknown
}

func classifyOraCode(code int) Category {
	if c, ok := oraCodes[code]; ok {
		return c
	}
	return Unknown
}
