package influxdb

import (
	"fmt"
	"strconv"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/fractalxaos/radmond/internal/record"
)

// measurementName is the InfluxDB measurement every record lands in.
const measurementName = "radiation"

// WriteMeasurement mirrors one converted record into InfluxDB.
//
// The point is stamped with the record's epoch timestamp, tagged with the
// monitor mode, and carries the cpm/cps counts plus the dose rate:
//
//	radiation,mode=slow cpm=20i,cps=0i,usv_per_hr=0.12 <epoch>
//
// The write is non-blocking; data is batched and sent asynchronously, with
// failures delivered via the SetOnError callback. The returned error only
// covers records that cannot form a point (unconverted or malformed).
func (c *Client) WriteMeasurement(rec record.Fields) error {
	epoch, ok := rec.Epoch()
	if !ok {
		return fmt.Errorf("%w: record has no epoch timestamp", ErrWriteFailed)
	}
	mode, ok := rec.Mode()
	if !ok {
		return fmt.Errorf("%w: record has no mode", ErrWriteFailed)
	}
	cpm, ok := rec.CPM()
	if !ok {
		return fmt.Errorf("%w: record has no CPM reading", ErrWriteFailed)
	}
	cps, ok := rec.CPS()
	if !ok {
		return fmt.Errorf("%w: record has no CPS reading", ErrWriteFailed)
	}
	doseStr, ok := rec.DoseRate()
	if !ok {
		return fmt.Errorf("%w: record has no dose rate", ErrWriteFailed)
	}
	dose, err := strconv.ParseFloat(doseStr, 64)
	if err != nil {
		return fmt.Errorf("%w: malformed dose rate %q", ErrWriteFailed, doseStr)
	}

	if !c.IsConnected() {
		return ErrNotConnected
	}

	point := write.NewPoint(
		measurementName,
		map[string]string{
			"mode": mode,
		},
		map[string]interface{}{
			"cpm":        int64(cpm),
			"cps":        int64(cps),
			"usv_per_hr": dose,
		},
		time.Unix(epoch, 0),
	)

	c.writeAPI.WritePoint(point)

	return nil
}
